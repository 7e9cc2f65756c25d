package catalog

import (
	"context"
	"sort"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
)

// ValuationItem represents a single row in the valuation table
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup represents one table of the report (e.g., "DRINKS")
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Valuation prices the tenant's physical stock at purchase price, grouped by category.
func (s *Store) Valuation(ctx context.Context, tenantID uint) (*Valuation, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name").Find(&products).Error; err != nil {
		return nil, database.Classify(err)
	}

	grouped := make(map[string]*CategoryGroup)
	report := &Valuation{GrandTotal: decimal.Zero}

	for _, p := range products {
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		group, ok := grouped[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			grouped[catName] = group
		}

		itemTotal := p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
		group.Items = append(group.Items, ValuationItem{
			Name:      p.Name,
			Quantity:  p.Quantity,
			CostPrice: p.PurchasePrice,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		report.GrandTotal = report.GrandTotal.Add(itemTotal)
	}

	report.Categories = make([]CategoryGroup, 0, len(grouped))
	for _, group := range grouped {
		report.Categories = append(report.Categories, *group)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].CategoryName < report.Categories[j].CategoryName
	})
	return report, nil
}

// LowStock lists active products at or below their own threshold.
// Products without a threshold are never reported.
func (s *Store) LowStock(ctx context.Context, tenantID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND low_stock_threshold IS NOT NULL AND quantity <= low_stock_threshold", tenantID, models.StatusActive).
		Order("quantity, name").
		Find(&products).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return products, nil
}
