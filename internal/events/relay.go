package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-pos-checkout/internal/models"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type Publisher interface {
	Publish(ctx context.Context, events []models.OutboxEvent) error
	Close() error
}

// KafkaPublisher writes outbox rows to the topic stored on each row.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, rows []models.OutboxEvent) error {
	msgs := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, kafka.Message{
			Topic:   row.Topic,
			Key:     []byte(row.Key),
			Value:   []byte(row.Payload),
			Time:    row.CreatedAt.UTC(),
			Headers: []kafka.Header{{Key: "event_id", Value: []byte(row.EventID)}},
		})
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Relay moves committed outbox rows to a Publisher. Delivery is at least
// once: a crash between Publish and MarkSent resends the batch, and
// consumers dedupe on event_id.
type Relay struct {
	db        *gorm.DB
	pub       Publisher
	interval  time.Duration
	batchSize int
	onSent    func(n int)
}

func NewRelay(db *gorm.DB, pub Publisher, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{db: db, pub: pub, interval: interval, batchSize: 100}
}

// OnSent registers a callback fired after every delivered batch.
func (r *Relay) OnSent(fn func(n int)) *Relay {
	r.onSent = fn
	return r
}

// Run flushes on every tick until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	slog.Info("📨 Outbox relay started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				slog.Error("outbox flush failed", "error", err)
			}
		}
	}
}

// Flush publishes one batch of pending events and returns how many were sent.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	pending, err := FetchPending(ctx, r.db, r.batchSize)
	if err != nil || len(pending) == 0 {
		return 0, err
	}

	if err := r.pub.Publish(ctx, pending); err != nil {
		return 0, err
	}

	ids := make([]uint, 0, len(pending))
	for _, ev := range pending {
		ids = append(ids, ev.ID)
	}
	if err := MarkSent(ctx, r.db, ids...); err != nil {
		return 0, err
	}
	if r.onSent != nil {
		r.onSent(len(ids))
	}
	slog.Debug("outbox flushed", "count", len(ids))
	return len(ids), nil
}
