package database

import (
	"context"
	"sort"
	"time"

	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
)

// SalesReportResult summarises one tenant's orders in a date range.
type SalesReportResult struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalCount    int64           `json:"total_orders"`
	// Sum of negative ledger deltas: goods handed over on credit
	CreditExtended decimal.Decimal `json:"credit_extended"`
	TopSelling     []TopSeller     `json:"top_selling"`
	RecentOrders   []models.Order  `json:"recent_orders"`
}

type TopSeller struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GetSalesReport calculates sales for tenantID within [start, end).
// Money is summed in Go with decimals; SQL SUM over DECIMAL comes back as
// float on some drivers.
func GetSalesReport(ctx context.Context, tenantID uint, start, end time.Time) (*SalesReportResult, error) {
	db := DB.WithContext(ctx)
	result := &SalesReportResult{
		From:           start,
		To:             end,
		TotalRevenue:   decimal.Zero,
		TotalDiscount:  decimal.Zero,
		CreditExtended: decimal.Zero,
		TopSelling:     []TopSeller{},
	}

	// 1. Order headers in range
	var orders []models.Order
	err := db.Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, start, end).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, Classify(err)
	}

	orderIDs := make([]uint, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		result.TotalRevenue = result.TotalRevenue.Add(o.Total)
		result.TotalDiscount = result.TotalDiscount.Add(o.Discount)
		if o.LedgerDelta.IsNegative() {
			result.CreditExtended = result.CreditExtended.Add(o.LedgerDelta.Neg())
		}
	}
	result.TotalCount = int64(len(orders))
	if len(orders) > 10 {
		result.RecentOrders = orders[:10]
	} else {
		result.RecentOrders = orders
	}
	if len(orderIDs) == 0 {
		return result, nil
	}

	// 2. Best sellers by units
	var items []models.OrderItem
	if err := db.Preload("Product").Where("order_id IN ?", orderIDs).Find(&items).Error; err != nil {
		return nil, Classify(err)
	}

	byProduct := make(map[uint]*TopSeller)
	for _, it := range items {
		ts, ok := byProduct[it.ProductID]
		if !ok {
			ts = &TopSeller{ProductID: it.ProductID, Revenue: decimal.Zero}
			if it.Product != nil {
				ts.ProductName = it.Product.Name
			}
			byProduct[it.ProductID] = ts
		}
		ts.Sold += it.Quantity
		ts.Revenue = ts.Revenue.Add(it.LineSubtotal)
	}
	for _, ts := range byProduct {
		result.TopSelling = append(result.TopSelling, *ts)
	}
	sort.Slice(result.TopSelling, func(i, j int) bool {
		a, b := result.TopSelling[i], result.TopSelling[j]
		if a.Sold != b.Sold {
			return a.Sold > b.Sold
		}
		return a.ProductName < b.ProductName
	})
	if len(result.TopSelling) > 5 {
		result.TopSelling = result.TopSelling[:5]
	}
	return result, nil
}
