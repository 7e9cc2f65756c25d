package catalog

import (
	"context"
	"errors"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput is what an admin sends to create a product.
type ProductInput struct {
	Barcode           string              `json:"barcode"`
	Name              string              `json:"name"`
	Category          string              `json:"category"`
	PurchasePrice     decimal.Decimal     `json:"purchase_price"`
	SellingPrice      decimal.NullDecimal `json:"selling_price"`
	Quantity          int                 `json:"quantity"`
	LowStockThreshold *int                `json:"low_stock_threshold"`
	ImageURL          string              `json:"image_url"`
}

// ProductPatch is a partial update; nil fields are left alone.
type ProductPatch struct {
	Name              *string          `json:"name"`
	Category          *string          `json:"category"`
	PurchasePrice     *decimal.Decimal `json:"purchase_price"`
	SellingPrice      *decimal.Decimal `json:"selling_price"`
	Quantity          *int             `json:"quantity"`
	LowStockThreshold *int             `json:"low_stock_threshold"`
	ImageURL          *string          `json:"image_url"`
	Status            *string          `json:"status"`
}

// List returns the tenant's products ordered by name.
func (s *Store) List(ctx context.Context, tenantID uint, includeInactive bool) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeInactive {
		q = q.Where("status = ?", models.StatusActive)
	}

	var products []models.Product
	if err := q.Order("name").Find(&products).Error; err != nil {
		return nil, database.Classify(err)
	}
	return products, nil
}

func (s *Store) Get(ctx context.Context, tenantID, id uint) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("id", "product %d not found", id)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &product, nil
}

func (s *Store) Create(ctx context.Context, tenantID uint, in ProductInput) (*models.Product, error) {
	in.Barcode = strings.TrimSpace(in.Barcode)
	in.Name = strings.TrimSpace(in.Name)

	switch {
	case in.Barcode == "":
		return nil, apperr.Validation("barcode", "is required")
	case in.Name == "":
		return nil, apperr.Validation("name", "is required")
	case !in.PurchasePrice.IsPositive():
		return nil, apperr.Validation("purchase_price", "must be greater than 0")
	case in.SellingPrice.Valid && !in.SellingPrice.Decimal.IsPositive():
		return nil, apperr.Validation("selling_price", "must be greater than 0")
	case in.Quantity < 0:
		return nil, apperr.Validation("quantity", "cannot be negative")
	case in.LowStockThreshold != nil && *in.LowStockThreshold < 0:
		return nil, apperr.Validation("low_stock_threshold", "cannot be negative")
	}

	product := models.Product{
		TenantID:          tenantID,
		Barcode:           in.Barcode,
		Name:              in.Name,
		Category:          in.Category,
		PurchasePrice:     in.PurchasePrice,
		SellingPrice:      in.SellingPrice,
		Quantity:          in.Quantity,
		LowStockThreshold: in.LowStockThreshold,
		ImageURL:          in.ImageURL,
		Status:            models.StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.Error{Kind: apperr.KindConflict, Field: "barcode", Message: "a product with this barcode or name already exists", Err: err}
		}
		return nil, database.Classify(err)
	}
	return &product, nil
}

// Update applies patch to a product of tenantID. Stock corrections made here
// are absolute (restocking); checkout never goes through this path.
func (s *Store) Update(ctx context.Context, tenantID, id uint, patch ProductPatch) (*models.Product, error) {
	updates := map[string]any{}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Validation("name", "cannot be empty")
		}
		updates["name"] = name
	}
	if patch.Category != nil {
		updates["category"] = *patch.Category
	}
	if patch.PurchasePrice != nil {
		if !patch.PurchasePrice.IsPositive() {
			return nil, apperr.Validation("purchase_price", "must be greater than 0")
		}
		updates["purchase_price"] = *patch.PurchasePrice
	}
	if patch.SellingPrice != nil {
		if !patch.SellingPrice.IsPositive() {
			return nil, apperr.Validation("selling_price", "must be greater than 0")
		}
		updates["selling_price"] = *patch.SellingPrice
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, apperr.Validation("quantity", "cannot be negative")
		}
		updates["quantity"] = *patch.Quantity
	}
	if patch.LowStockThreshold != nil {
		if *patch.LowStockThreshold < 0 {
			return nil, apperr.Validation("low_stock_threshold", "cannot be negative")
		}
		updates["low_stock_threshold"] = *patch.LowStockThreshold
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if patch.Status != nil {
		if *patch.Status != models.StatusActive && *patch.Status != models.StatusInactive {
			return nil, apperr.Validation("status", "must be active or inactive")
		}
		updates["status"] = *patch.Status
	}

	product, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.Error{Kind: apperr.KindConflict, Field: "name", Message: "a product with this name already exists", Err: err}
		}
		return nil, database.Classify(err)
	}
	return s.Get(ctx, tenantID, id)
}

// Deactivate hides a product from checkout. Rows are kept because past order
// items reference them.
func (s *Store) Deactivate(ctx context.Context, tenantID, id uint) error {
	status := models.StatusInactive
	_, err := s.Update(ctx, tenantID, id, ProductPatch{Status: &status})
	return err
}
