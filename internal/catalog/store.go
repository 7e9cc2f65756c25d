// Package catalog owns products and their stock, always scoped to a tenant.
package catalog

import (
	"context"
	"errors"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db   *gorm.DB
	lock bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx binds the store to a transaction. Product reads made through the
// returned store take a row lock that is held until the transaction ends.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, lock: true}
}

// FindSellable returns the active product with barcode in tenantID. Products
// of other tenants are filtered by the query itself and look exactly like
// missing ones.
func (s *Store) FindSellable(ctx context.Context, tenantID uint, barcode string) (*models.Product, error) {
	q := s.db.WithContext(ctx)
	if s.lock {
		// Lock the row so the price we read is the one we sell at
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	err := q.Where("tenant_id = ? AND barcode = ? AND status = ?", tenantID, barcode, models.StatusActive).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("barcode", "product %s not found", barcode)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &product, nil
}

// DecrementStock removes quantity units from a product and returns what is
// left. The check and the write are one conditional UPDATE, so two callers
// racing on the same row can never both succeed past the available stock.
func (s *Store) DecrementStock(ctx context.Context, tenantID, productID uint, quantity int) (int, error) {
	if quantity < 1 {
		return 0, apperr.Validation("quantity", "must be at least 1")
	}

	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND tenant_id = ? AND status = ? AND quantity >= ?", productID, tenantID, models.StatusActive, quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, database.Classify(res.Error)
	}

	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND status = ?", productID, tenantID, models.StatusActive).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.NotFound("product_id", "product %d not found", productID)
	}
	if err != nil {
		return 0, database.Classify(err)
	}

	if res.RowsAffected == 0 {
		return product.Quantity, apperr.InsufficientStock("quantity", product.Name, product.Quantity, quantity)
	}
	return product.Quantity, nil
}
