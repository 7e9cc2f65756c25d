package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/dbtest"
	"go-pos-checkout/internal/models"
)

func TestGetSalesReport(t *testing.T) {
	db := dbtest.New(t)
	prev := database.DB
	database.SetTestDB(db)
	t.Cleanup(func() { database.SetTestDB(prev) })

	shop := dbtest.Owner(t, db, "shop")
	other := dbtest.Owner(t, db, "other")
	cola := dbtest.Product(t, db, shop.ID, "111", "Cola", "50", 50)
	bread := dbtest.Product(t, db, shop.ID, "222", "Bread", "20", 50)

	customer := models.Customer{TenantID: shop.ID, Name: "Ann", Balance: dbtest.Dec("0")}
	require.NoError(t, db.Create(&customer).Error)

	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	seed := func(tenantID uint, at time.Time, total, discount, delta string, items ...models.OrderItem) {
		o := models.Order{
			TenantID: tenantID, CustomerID: customer.ID,
			Subtotal: dbtest.Dec(total).Add(dbtest.Dec(discount)), Discount: dbtest.Dec(discount), Total: dbtest.Dec(total),
			AmountReceived: dbtest.Dec("0"), AmountReturned: dbtest.Dec("0"), LedgerDelta: dbtest.Dec(delta),
			CreatedBy: tenantID, CreatedAt: at,
		}
		require.NoError(t, db.Create(&o).Error)
		for i := range items {
			items[i].OrderID = o.ID
		}
		if len(items) > 0 {
			require.NoError(t, db.Create(&items).Error)
		}
	}

	seed(shop.ID, day, "100", "0", "0",
		models.OrderItem{ProductID: cola.ID, Quantity: 2, UnitPrice: dbtest.Dec("50"), LineSubtotal: dbtest.Dec("100")})
	seed(shop.ID, day.Add(time.Hour), "55", "5", "-55",
		models.OrderItem{ProductID: bread.ID, Quantity: 3, UnitPrice: dbtest.Dec("20"), LineSubtotal: dbtest.Dec("60")})
	seed(shop.ID, day.AddDate(0, 0, 3), "999", "0", "0")
	seed(other.ID, day, "777", "0", "0")

	report, err := database.GetSalesReport(context.Background(), shop.ID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.EqualValues(t, 2, report.TotalCount)
	assert.True(t, dbtest.Dec("155").Equal(report.TotalRevenue), report.TotalRevenue.String())
	assert.True(t, dbtest.Dec("5").Equal(report.TotalDiscount))
	assert.True(t, dbtest.Dec("55").Equal(report.CreditExtended))
	require.Len(t, report.TopSelling, 2)
	assert.Equal(t, "Bread", report.TopSelling[0].ProductName)
	assert.Equal(t, 3, report.TopSelling[0].Sold)
	assert.Len(t, report.RecentOrders, 2)

	t.Run("Empty range", func(t *testing.T) {
		report, err := database.GetSalesReport(context.Background(), shop.ID, day.AddDate(1, 0, 0), day.AddDate(1, 0, 1))
		require.NoError(t, err)
		assert.Zero(t, report.TotalCount)
		assert.True(t, report.TotalRevenue.IsZero())
		assert.Empty(t, report.TopSelling)
	})
}
