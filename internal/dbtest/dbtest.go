// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"
)

// New returns a migrated in-memory database private to t. The pool is pinned
// to one connection: sqlite has no row locks, so transactions queue on the
// connection the same way they queue on row locks in MySQL/PostgreSQL.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to connect test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Owner inserts an admin account; its id is the tenant id of everything it owns.
func Owner(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Role: models.RoleAdmin}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return u
}

// Worker inserts a cashier created by owner.
func Worker(t *testing.T, db *gorm.DB, username string, owner models.User) models.User {
	t.Helper()
	u := models.User{Username: username, Role: models.RoleCashier, OwnerID: &owner.ID}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create worker: %v", err)
	}
	return u
}

// Product inserts an active product priced at price with qty in stock.
func Product(t *testing.T, db *gorm.DB, tenantID uint, barcode, name, price string, qty int) models.Product {
	t.Helper()
	p := models.Product{
		TenantID:      tenantID,
		Barcode:       barcode,
		Name:          name,
		PurchasePrice: decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		SellingPrice:  decimal.NewNullDecimal(decimal.RequireFromString(price)),
		Quantity:      qty,
		Status:        models.StatusActive,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// Quantity re-reads a product's stock.
func Quantity(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return p.Quantity
}

// Dec parses a decimal literal.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
