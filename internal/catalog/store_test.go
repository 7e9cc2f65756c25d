package catalog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/dbtest"
	"go-pos-checkout/internal/models"
)

func TestFindSellable(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	shopA := dbtest.Owner(t, db, "shop-a")
	shopB := dbtest.Owner(t, db, "shop-b")

	cola := dbtest.Product(t, db, shopA.ID, "111", "Cola", "50", 5)
	dbtest.Product(t, db, shopB.ID, "222", "Bread", "20", 5)

	store := catalog.NewStore(db)

	t.Run("Finds a product of the tenant", func(t *testing.T) {
		p, err := store.FindSellable(ctx, shopA.ID, "111")
		require.NoError(t, err)
		assert.Equal(t, cola.ID, p.ID)
		assert.True(t, dbtest.Dec("50").Equal(p.SellingPrice.Decimal))
	})

	t.Run("Another tenant's barcode looks missing", func(t *testing.T) {
		_, err := store.FindSellable(ctx, shopA.ID, "222")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Inactive products are not sellable", func(t *testing.T) {
		require.NoError(t, store.Deactivate(ctx, shopA.ID, cola.ID))
		_, err := store.FindSellable(ctx, shopA.ID, "111")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Locking read inside a transaction", func(t *testing.T) {
		dbtest.Product(t, db, shopB.ID, "333", "Milk", "30", 2)
		err := db.Transaction(func(tx *gorm.DB) error {
			p, err := store.WithTx(tx).FindSellable(ctx, shopB.ID, "333")
			if err != nil {
				return err
			}
			assert.Equal(t, "Milk", p.Name)
			return nil
		})
		assert.NoError(t, err)
	})
}

func TestDecrementStock(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	shopA := dbtest.Owner(t, db, "shop-a")
	shopB := dbtest.Owner(t, db, "shop-b")
	store := catalog.NewStore(db)

	t.Run("Decrements and returns what is left", func(t *testing.T) {
		p := dbtest.Product(t, db, shopA.ID, "111", "Cola", "50", 5)
		left, err := store.DecrementStock(ctx, shopA.ID, p.ID, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, left)
		assert.Equal(t, 3, dbtest.Quantity(t, db, p.ID))
	})

	t.Run("Selling the last unit reaches zero", func(t *testing.T) {
		p := dbtest.Product(t, db, shopA.ID, "112", "Water", "10", 1)
		left, err := store.DecrementStock(ctx, shopA.ID, p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, left)
	})

	t.Run("Insufficient stock leaves quantity untouched", func(t *testing.T) {
		p := dbtest.Product(t, db, shopA.ID, "113", "Juice", "40", 1)
		_, err := store.DecrementStock(ctx, shopA.ID, p.ID, 2)

		var ae *apperr.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, apperr.KindInsufficientStock, ae.Kind)
		assert.Equal(t, 1, ae.Details["available"])
		assert.Equal(t, 2, ae.Details["requested"])
		assert.Contains(t, ae.Message, "Juice")
		assert.Equal(t, 1, dbtest.Quantity(t, db, p.ID))
	})

	t.Run("Other tenant cannot decrement", func(t *testing.T) {
		p := dbtest.Product(t, db, shopB.ID, "114", "Bread", "20", 5)
		_, err := store.DecrementStock(ctx, shopA.ID, p.ID, 1)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, 5, dbtest.Quantity(t, db, p.ID))
	})

	t.Run("Quantity must be positive", func(t *testing.T) {
		p := dbtest.Product(t, db, shopA.ID, "115", "Tea", "15", 5)
		_, err := store.DecrementStock(ctx, shopA.ID, p.ID, 0)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Concurrent decrements never oversell", func(t *testing.T) {
		p := dbtest.Product(t, db, shopA.ID, "116", "Chips", "25", 5)

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded, short := 0, 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.DecrementStock(ctx, shopA.ID, p.ID, 1)
				mu.Lock()
				defer mu.Unlock()
				switch apperr.KindOf(err) {
				case "":
					succeeded++
				case apperr.KindInsufficientStock:
					short++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded)
		assert.Equal(t, 3, short)
		assert.Equal(t, 0, dbtest.Quantity(t, db, p.ID))
	})
}

func TestProductCRUD(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	shop := dbtest.Owner(t, db, "shop")
	other := dbtest.Owner(t, db, "other")
	store := catalog.NewStore(db)

	threshold := 3
	created, err := store.Create(ctx, shop.ID, catalog.ProductInput{
		Barcode:           " 999 ",
		Name:              "Soap",
		Category:          "Household",
		PurchasePrice:     dbtest.Dec("12.50"),
		Quantity:          10,
		LowStockThreshold: &threshold,
	})
	require.NoError(t, err)
	assert.Equal(t, "999", created.Barcode)
	assert.Equal(t, models.StatusActive, created.Status)
	assert.False(t, created.SellingPrice.Valid)

	t.Run("Rejects bad input", func(t *testing.T) {
		_, err := store.Create(ctx, shop.ID, catalog.ProductInput{Barcode: "1", Name: "Free", PurchasePrice: dbtest.Dec("0")})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Duplicate barcode within a tenant conflicts", func(t *testing.T) {
		_, err := store.Create(ctx, shop.ID, catalog.ProductInput{Barcode: "999", Name: "Other soap", PurchasePrice: dbtest.Dec("1")})
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("Same barcode in another tenant is fine", func(t *testing.T) {
		_, err := store.Create(ctx, other.ID, catalog.ProductInput{Barcode: "999", Name: "Soap", PurchasePrice: dbtest.Dec("1")})
		assert.NoError(t, err)
	})

	t.Run("Partial update", func(t *testing.T) {
		price := dbtest.Dec("20")
		qty := 2
		updated, err := store.Update(ctx, shop.ID, created.ID, catalog.ProductPatch{SellingPrice: &price, Quantity: &qty})
		require.NoError(t, err)
		assert.True(t, updated.SellingPrice.Valid)
		assert.True(t, price.Equal(updated.SellingPrice.Decimal))
		assert.Equal(t, 2, updated.Quantity)
		assert.Equal(t, "Soap", updated.Name)
	})

	t.Run("Update across tenants is not found", func(t *testing.T) {
		qty := 100
		_, err := store.Update(ctx, other.ID, created.ID, catalog.ProductPatch{Quantity: &qty})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Low stock and valuation", func(t *testing.T) {
		low, err := store.LowStock(ctx, shop.ID)
		require.NoError(t, err)
		require.Len(t, low, 1)
		assert.Equal(t, "Soap", low[0].Name)

		report, err := store.Valuation(ctx, shop.ID)
		require.NoError(t, err)
		require.Len(t, report.Categories, 1)
		assert.Equal(t, "Household", report.Categories[0].CategoryName)
		assert.True(t, dbtest.Dec("25").Equal(report.GrandTotal), report.GrandTotal.String())
	})

	t.Run("List hides inactive unless asked", func(t *testing.T) {
		require.NoError(t, store.Deactivate(ctx, shop.ID, created.ID))

		active, err := store.List(ctx, shop.ID, false)
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := store.List(ctx, shop.ID, true)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
