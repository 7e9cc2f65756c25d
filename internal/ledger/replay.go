package ledger

import (
	"context"
	"log/slog"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"

	"github.com/shopspring/decimal"
)

// Replay recomputes a balance from history: every order's ledger delta plus
// every payment. Sums run in Go so no driver rounds through floats.
func (l *Ledger) Replay(ctx context.Context, customerID uint) (decimal.Decimal, error) {
	db := l.db.WithContext(ctx)

	var orders []models.Order
	if err := db.Select("ledger_delta").Where("customer_id = ?", customerID).Find(&orders).Error; err != nil {
		return decimal.Zero, database.Classify(err)
	}
	var payments []models.Payment
	if err := db.Select("amount").Where("customer_id = ?", customerID).Find(&payments).Error; err != nil {
		return decimal.Zero, database.Classify(err)
	}

	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.LedgerDelta)
	}
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

// Statement is a customer's stored balance next to its replayed one.
type Statement struct {
	Customer   models.Customer  `json:"customer"`
	Payments   []models.Payment `json:"payments"`
	Replayed   decimal.Decimal  `json:"replayed_balance"`
	Consistent bool             `json:"consistent"`
}

// Verify replays a customer and fails with an internal error when the stored
// balance has drifted from its history.
func (l *Ledger) Verify(ctx context.Context, tenantID, customerID uint) (*Statement, error) {
	customer, err := l.Get(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	replayed, err := l.Replay(ctx, customerID)
	if err != nil {
		return nil, err
	}
	payments, err := l.Payments(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}

	st := &Statement{
		Customer:   *customer,
		Payments:   payments,
		Replayed:   replayed,
		Consistent: replayed.Equal(customer.Balance),
	}
	if !st.Consistent {
		slog.Error("ledger drift detected",
			"tenant_id", tenantID,
			"customer_id", customerID,
			"stored", customer.Balance.String(),
			"replayed", replayed.String())
		return st, apperr.Internal(nil, "balance of customer %d is %s but history sums to %s", customerID, customer.Balance, replayed)
	}
	return st, nil
}
