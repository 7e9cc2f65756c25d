package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-pos-checkout/internal/dbtest"
	"go-pos-checkout/internal/events"
	"go-pos-checkout/internal/models"
)

type fakePublisher struct {
	sent []models.OutboxEvent
	fail error
}

func (f *fakePublisher) Publish(_ context.Context, rows []models.OutboxEvent) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, rows...)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func TestEnqueueAndFlush(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	var eventID string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		eventID, err = events.Enqueue(tx, "pos.orders", "7", events.TypeOrderCreated, 3, map[string]any{"order_id": 7})
		return err
	})
	require.NoError(t, err)

	t.Run("Publish failure keeps the event pending", func(t *testing.T) {
		pub := &fakePublisher{fail: errors.New("broker down")}
		n, err := events.NewRelay(db, pub, 0).Flush(ctx)
		assert.Error(t, err)
		assert.Zero(t, n)

		pending, err := events.FetchPending(ctx, db, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("Flush publishes and marks sent", func(t *testing.T) {
		pub := &fakePublisher{}
		relay := events.NewRelay(db, pub, 0)

		n, err := relay.Flush(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.Len(t, pub.sent, 1)
		assert.Equal(t, "pos.orders", pub.sent[0].Topic)
		assert.Equal(t, eventID, pub.sent[0].EventID)

		var env map[string]any
		require.NoError(t, json.Unmarshal([]byte(pub.sent[0].Payload), &env))
		assert.Equal(t, events.TypeOrderCreated, env["type"])
		assert.EqualValues(t, 3, env["tenant_id"])

		n, err = relay.Flush(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Rolled back transaction leaves no event", func(t *testing.T) {
		_ = db.Transaction(func(tx *gorm.DB) error {
			if _, err := events.Enqueue(tx, "pos.orders", "8", events.TypeOrderCreated, 3, nil); err != nil {
				return err
			}
			return errors.New("abort")
		})
		pending, err := events.FetchPending(ctx, db, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, events.ParseBrokers(" a:9092, ,b:9092 "))
	assert.Nil(t, events.ParseBrokers(""))
}
