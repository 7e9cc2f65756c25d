package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"

	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User - The person operating a till. Workers carry their creator in OwnerID.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	OwnerID      *uint     `gorm:"index" json:"owner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory, one row per tenant catalog entry
type Product struct {
	ID                uint                `gorm:"primaryKey" json:"id"`
	TenantID          uint                `gorm:"not null;uniqueIndex:idx_products_tenant_barcode;uniqueIndex:idx_products_tenant_name" json:"tenant_id"`
	Barcode           string              `gorm:"size:64;not null;uniqueIndex:idx_products_tenant_barcode" json:"barcode"`
	Name              string              `gorm:"size:120;not null;uniqueIndex:idx_products_tenant_name" json:"name"`
	Category          string              `gorm:"size:80" json:"category"`
	PurchasePrice     decimal.Decimal     `gorm:"type:decimal(20,2);not null" json:"purchase_price"`
	SellingPrice      decimal.NullDecimal `gorm:"type:decimal(20,2)" json:"selling_price"`
	Quantity          int                 `gorm:"not null" json:"quantity"`
	LowStockThreshold *int                `json:"low_stock_threshold,omitempty"`
	ImageURL          string              `gorm:"size:255" json:"image_url"`
	Status            string              `gorm:"size:16;not null" json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Customer - Running ledger balance per (tenant, name)
type Customer struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	TenantID  uint            `gorm:"not null;uniqueIndex:idx_customers_tenant_name" json:"tenant_id"`
	Name      string          `gorm:"size:120;not null;uniqueIndex:idx_customers_tenant_name" json:"name"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order - The Transaction Header. Written once by checkout, never updated.
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	TenantID       uint            `gorm:"not null;index;uniqueIndex:idx_orders_tenant_request" json:"tenant_id"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	Customer       *Customer       `json:"customer,omitempty"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Discount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"discount"`
	Total          decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"total"`
	AmountReceived decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_received"`
	AmountReturned decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_returned"`
	LedgerDelta    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"ledger_delta"`
	RequestKey     *string         `gorm:"size:64;uniqueIndex:idx_orders_tenant_request" json:"request_key,omitempty"`
	CreatedBy      uint            `json:"created_by"` // Who processed it
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem - The specific items in a cart
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    uint            `gorm:"not null;index" json:"product_id"`
	Product      *Product        `json:"product,omitempty"` // Preload product details
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`    // Snapshot of price at time of sale
	LineSubtotal decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"line_subtotal"` // UnitPrice * Quantity, captured
}

// Payment - Manual settlement against a customer's ledger
type Payment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	TenantID   uint            `gorm:"not null;index" json:"tenant_id"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	RecordedBy uint            `json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OutboxEvent - Domain events written in the same transaction as the change they describe
type OutboxEvent struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   string     `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	Topic     string     `gorm:"size:120;not null" json:"topic"`
	Key       string     `gorm:"size:120" json:"key"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `gorm:"index" json:"sent_at,omitempty"`
}
