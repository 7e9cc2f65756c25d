// Package orders is the append-only record of completed checkouts.
package orders

import (
	"context"
	"errors"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// DateRange bounds a listing by created_at. Nil ends are open; To is exclusive.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// CreateOrder inserts the order header only; items go through CreateOrderItems.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (s *Store) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(items, 100).Error
}

// GetByID loads an order with its items and their products. Orders of other
// tenants are reported as missing.
func (s *Store) GetByID(ctx context.Context, tenantID, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Customer").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("id", "order %d not found", id)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &order, nil
}

// FindByRequestKey returns the order created under an idempotency key, with
// its items, or nil.
func (s *Store) FindByRequestKey(ctx context.Context, tenantID uint, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("tenant_id = ? AND request_key = ?", tenantID, key).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &order, nil
}

// ListByTenant returns the tenant's orders in the range, newest first, and
// the sum of their totals.
func (s *Store) ListByTenant(ctx context.Context, tenantID uint, r DateRange) ([]models.Order, decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Preload("Customer").Where("tenant_id = ?", tenantID)
	if r.From != nil {
		q = q.Where("created_at >= ?", *r.From)
	}
	if r.To != nil {
		q = q.Where("created_at < ?", *r.To)
	}

	var list []models.Order
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, decimal.Zero, database.Classify(err)
	}

	total := decimal.Zero
	for _, o := range list {
		total = total.Add(o.Total)
	}
	return list, total, nil
}

func (s *Store) ListByCustomer(ctx context.Context, tenantID, customerID uint) ([]models.Order, error) {
	var list []models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Product").
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return list, nil
}
