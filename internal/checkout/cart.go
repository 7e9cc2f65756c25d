package checkout

import (
	"fmt"
	"sort"
	"strings"

	"go-pos-checkout/internal/apperr"

	"github.com/shopspring/decimal"
)

type LineItem struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

// Cart is one checkout request. RequestKey is the client's idempotency key
// and may be empty.
type Cart struct {
	CustomerName   string          `json:"customer_name"`
	Items          []LineItem      `json:"items"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	AmountReturned decimal.Decimal `json:"amount_returned"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	RequestKey     string          `json:"-"`
}

// line is a validated cart line remembering its position in the request.
type line struct {
	index    int
	barcode  string
	quantity int
}

func (l line) field(name string) string {
	return fmt.Sprintf("items[%d].%s", l.index, name)
}

// validate checks the cart shape and returns its lines in barcode order.
// Every checkout locks product rows in that same order.
func validate(cart *Cart) ([]line, error) {
	cart.CustomerName = strings.TrimSpace(cart.CustomerName)
	cart.RequestKey = strings.TrimSpace(cart.RequestKey)

	if cart.CustomerName == "" {
		return nil, apperr.Validation("customer_name", "is required")
	}
	if len(cart.Items) == 0 {
		return nil, apperr.Validation("items", "at least one item is required")
	}
	if len(cart.RequestKey) > 64 {
		return nil, apperr.Validation("idempotency_key", "must be at most 64 characters")
	}

	money := []struct {
		field string
		value decimal.Decimal
	}{
		{"amount_received", cart.AmountReceived},
		{"amount_returned", cart.AmountReturned},
		{"discount_amount", cart.DiscountAmount},
	}
	for _, m := range money {
		if err := apperr.Money(m.field, m.value); err != nil {
			return nil, err
		}
	}

	lines := make([]line, 0, len(cart.Items))
	for i, item := range cart.Items {
		l := line{index: i, barcode: strings.TrimSpace(item.Barcode), quantity: item.Quantity}
		if l.barcode == "" {
			return nil, apperr.Validation(l.field("barcode"), "is required")
		}
		if l.quantity < 1 {
			return nil, apperr.Validation(l.field("quantity"), "must be at least 1")
		}
		lines = append(lines, l)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].barcode < lines[j].barcode })
	return lines, nil
}

// Totals are the money figures of one order.
type Totals struct {
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	AmountReceived decimal.Decimal
	AmountReturned decimal.Decimal
	LedgerDelta    decimal.Decimal
}

// ComputeTotals clamps the total at zero and the change at what was handed
// over. A negative ledger delta is money the customer still owes.
func ComputeTotals(subtotal, discount, received, returned decimal.Decimal) Totals {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if returned.GreaterThan(received) {
		returned = received
	}
	return Totals{
		Subtotal:       subtotal,
		Discount:       discount,
		Total:          total,
		AmountReceived: received,
		AmountReturned: returned,
		LedgerDelta:    received.Sub(returned).Sub(total),
	}
}
