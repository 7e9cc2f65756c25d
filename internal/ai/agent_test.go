package ai_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/dbtest"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/tenant"
)

func TestExecuteTool(t *testing.T) {
	db := dbtest.New(t)
	prev := database.DB
	database.SetTestDB(db)
	t.Cleanup(func() { database.SetTestDB(prev) })

	ctx := context.Background()
	shop := dbtest.Owner(t, db, "shop")
	other := dbtest.Owner(t, db, "other")
	scope := tenant.Scope{TenantID: shop.ID, ActorID: shop.ID, Role: models.RoleAdmin}

	cola := dbtest.Product(t, db, shop.ID, "111", "Cola", "50", 2)
	threshold := 5
	require.NoError(t, db.Model(&cola).Update("low_stock_threshold", threshold).Error)
	dbtest.Product(t, db, other.ID, "222", "Secret Sauce", "99", 1)

	require.NoError(t, db.Create(&models.Customer{TenantID: shop.ID, Name: "Ann", Balance: dbtest.Dec("-12.5")}).Error)

	t.Run("Inventory only shows the tenant's products", func(t *testing.T) {
		out, err := ai.ExecuteTool(ctx, scope, "check_inventory", nil)
		require.NoError(t, err)
		assert.Contains(t, out, "inventory")
		assert.Contains(t, toString(out), "Cola")
		assert.NotContains(t, toString(out), "Secret Sauce")
	})

	t.Run("Low stock", func(t *testing.T) {
		out, err := ai.ExecuteTool(ctx, scope, "low_stock", nil)
		require.NoError(t, err)
		assert.Contains(t, toString(out), "Cola")
	})

	t.Run("Customer balance", func(t *testing.T) {
		out, err := ai.ExecuteTool(ctx, scope, "customer_balance", map[string]any{"name": "Ann"})
		require.NoError(t, err)
		assert.Equal(t, "-12.50", out["balance"])

		_, err = ai.ExecuteTool(ctx, scope, "customer_balance", map[string]any{"name": "Zed"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Sales report validates dates", func(t *testing.T) {
		_, err := ai.ExecuteTool(ctx, scope, "get_sales_report", map[string]any{"start_date": "yesterday", "end_date": "today"})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		today := time.Now().Format("2006-01-02")
		out, err := ai.ExecuteTool(ctx, scope, "get_sales_report", map[string]any{"start_date": today, "end_date": today})
		require.NoError(t, err)
		assert.Equal(t, "0.00", out["revenue"])
	})

	t.Run("Write tools do not exist", func(t *testing.T) {
		_, err := ai.ExecuteTool(ctx, scope, "update_product_price", map[string]any{"product_id": 1.0, "new_price": 1.0})
		assert.ErrorIs(t, err, ai.ErrUnknownTool)
	})
}

func TestToolsAreDeclared(t *testing.T) {
	var names []string
	for _, fd := range ai.Tools()[0].FunctionDeclarations {
		names = append(names, fd.Name)
	}
	assert.ElementsMatch(t, []string{"check_inventory", "low_stock", "get_sales_report", "customer_balance"}, names)
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
