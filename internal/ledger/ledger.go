// Package ledger keeps each customer's running balance. Checkout moves it by
// an order's ledger delta and manual payments move it by the amount paid.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/events"
	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger struct {
	db    *gorm.DB
	topic string
}

func New(db *gorm.DB, topic string) *Ledger {
	return &Ledger{db: db, topic: topic}
}

// WithTx binds the ledger to a running transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx, topic: l.topic}
}

// GetOrCreate returns the customer called name in tenantID, creating it with
// a zero balance when absent. The returned row is locked for the rest of the
// transaction, so concurrent first orders for one name end up on one row.
func (l *Ledger) GetOrCreate(ctx context.Context, tenantID uint, name string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("customer_name", "is required")
	}

	db := l.db.WithContext(ctx)
	fresh := models.Customer{TenantID: tenantID, Name: name, Balance: decimal.Zero}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, database.Classify(err)
	}

	var customer models.Customer
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&customer).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return &customer, nil
}

// ApplyDelta adds delta to the customer's balance and returns the new balance.
func (l *Ledger) ApplyDelta(ctx context.Context, customerID uint, delta decimal.Decimal) (decimal.Decimal, error) {
	db := l.db.WithContext(ctx)

	var customer models.Customer
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperr.NotFound("customer_id", "customer %d not found", customerID)
	}
	if err != nil {
		return decimal.Zero, database.Classify(err)
	}

	balance := customer.Balance.Add(delta)
	if err := db.Model(&customer).Update("balance", balance).Error; err != nil {
		return decimal.Zero, database.Classify(err)
	}
	return balance, nil
}

// PaymentResult is what RecordPayment reports back.
type PaymentResult struct {
	PaymentID  uint            `json:"payment_id"`
	CustomerID uint            `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// RecordPayment settles amount against an existing customer. Payments are
// added to the balance, the same direction as an overpaying order.
func (l *Ledger) RecordPayment(ctx context.Context, tenantID uint, customerName string, amount decimal.Decimal, actorID uint) (*PaymentResult, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, apperr.Validation("customer_name", "is required")
	}
	if !amount.IsPositive() {
		return nil, apperr.Validation("amount", "must be greater than 0")
	}
	if err := apperr.Money("amount", amount); err != nil {
		return nil, err
	}

	var result *PaymentResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND name = ?", tenantID, customerName).
			First(&customer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer_name", "customer %s not found", customerName)
		}
		if err != nil {
			return err
		}

		payment := models.Payment{TenantID: tenantID, CustomerID: customer.ID, Amount: amount, RecordedBy: actorID}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		balance, err := l.WithTx(tx).ApplyDelta(ctx, customer.ID, amount)
		if err != nil {
			return err
		}

		result = &PaymentResult{PaymentID: payment.ID, CustomerID: customer.ID, Amount: amount, NewBalance: balance}
		_, err = events.Enqueue(tx, l.topic, strconv.FormatUint(uint64(customer.ID), 10), events.TypePaymentRecorded, tenantID, result)
		return err
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return result, nil
}

func (l *Ledger) List(ctx context.Context, tenantID uint) ([]models.Customer, error) {
	var customers []models.Customer
	if err := l.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("name").Find(&customers).Error; err != nil {
		return nil, database.Classify(err)
	}
	return customers, nil
}

func (l *Ledger) Get(ctx context.Context, tenantID, id uint) (*models.Customer, error) {
	var customer models.Customer
	err := l.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("id", "customer %d not found", id)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &customer, nil
}

func (l *Ledger) FindByName(ctx context.Context, tenantID uint, name string) (*models.Customer, error) {
	var customer models.Customer
	err := l.db.WithContext(ctx).Where("tenant_id = ? AND name = ?", tenantID, strings.TrimSpace(name)).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("customer_name", "customer %s not found", name)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &customer, nil
}

func (l *Ledger) Payments(ctx context.Context, tenantID, customerID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := l.db.WithContext(ctx).
		Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("created_at, id").
		Find(&payments).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return payments, nil
}
