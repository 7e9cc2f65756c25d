// Package events keeps domain events in an outbox table written by the same
// transaction as the change, and relays them to Kafka afterwards.
package events

import (
	"context"
	"encoding/json"
	"time"

	"go-pos-checkout/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeOrderCreated    = "order.created"
	TypePaymentRecorded = "payment.recorded"
)

// Envelope is the JSON body of every event.
type Envelope struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	TenantID   uint      `json:"tenant_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Enqueue stores an event on tx. It is only visible to the relay once tx commits.
func Enqueue(tx *gorm.DB, topic, key, eventType string, tenantID uint, data any) (string, error) {
	env := Envelope{
		EventID:    uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	row := models.OutboxEvent{
		EventID: env.EventID,
		Topic:   topic,
		Key:     key,
		Payload: string(payload),
	}
	if err := tx.Create(&row).Error; err != nil {
		return "", err
	}
	return env.EventID, nil
}

func FetchPending(ctx context.Context, db *gorm.DB, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	err := db.WithContext(ctx).Where("sent_at IS NULL").Order("id").Limit(limit).Find(&out).Error
	return out, err
}

func MarkSent(ctx context.Context, db *gorm.DB, ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("sent_at", time.Now().UTC()).Error
}
