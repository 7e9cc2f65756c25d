// Package checkout turns a cart into an order. Stock, the order rows, the
// customer balance and the outbox event are written in one transaction:
// a failed checkout leaves no trace.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/events"
	"go-pos-checkout/internal/ledger"
	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/orders"
	"go-pos-checkout/internal/tenant"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type State string

const (
	StateValidating     State = "validating"
	StateReservingStock State = "reserving_stock"
	StatePersisting     State = "persisting"
	StateLedgerUpdating State = "ledger_updating"
	StateCommitted      State = "committed"
	StateAborted        State = "aborted"
)

type Result struct {
	OrderID        uint            `json:"order_id"`
	CustomerID     uint            `json:"customer_id"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	AmountReceived decimal.Decimal `json:"amount_received"`
	AmountReturned decimal.Decimal `json:"amount_returned"`
	LedgerDelta    decimal.Decimal `json:"ledger_delta"`
	Balance        decimal.Decimal `json:"balance"`
	Replayed       bool            `json:"replayed"`
}

type Options struct {
	Timeout time.Duration
	Topic   string
	Metrics *metrics.ServerMetrics
}

type Coordinator struct {
	db      *gorm.DB
	catalog *catalog.Store
	ledger  *ledger.Ledger
	orders  *orders.Store
	timeout time.Duration
	topic   string
	metrics *metrics.ServerMetrics
}

func New(db *gorm.DB, opts Options) *Coordinator {
	return &Coordinator{
		db:      db,
		catalog: catalog.NewStore(db),
		ledger:  ledger.New(db, opts.Topic),
		orders:  orders.NewStore(db),
		timeout: opts.Timeout,
		topic:   opts.Topic,
		metrics: opts.Metrics,
	}
}

// Checkout runs the cart for scope's tenant. On error nothing was written.
func (c *Coordinator) Checkout(ctx context.Context, scope tenant.Scope, cart Cart) (*Result, error) {
	started := time.Now()
	state := StateValidating

	res, err := c.run(ctx, scope, &cart, &state)
	if err != nil {
		kind := apperr.KindOf(err)
		attrs := []any{
			"tenant_id", scope.TenantID,
			"actor_id", scope.ActorID,
			"state", string(state),
			"kind", string(kind),
			"error", err,
		}
		if kind == apperr.KindInternal {
			slog.Error("checkout "+string(StateAborted), attrs...)
		} else {
			slog.Warn("checkout "+string(StateAborted), attrs...)
		}
		c.metrics.ObserveCheckout(string(kind), started)
		return nil, err
	}

	outcome := string(StateCommitted)
	if res.Replayed {
		outcome = "replayed"
	}
	slog.Info("checkout "+outcome,
		"tenant_id", scope.TenantID,
		"actor_id", scope.ActorID,
		"order_id", res.OrderID,
		"total", res.Total.String(),
		"ledger_delta", res.LedgerDelta.String())
	c.metrics.ObserveCheckout(outcome, started)
	return res, nil
}

func (c *Coordinator) run(ctx context.Context, scope tenant.Scope, cart *Cart, state *State) (*Result, error) {
	// 1. Shape checks, before any storage access
	lines, err := validate(cart)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// 2. A retried request gets the original answer back
	if cart.RequestKey != "" {
		if res, err := c.replay(ctx, scope.TenantID, cart, lines); res != nil || err != nil {
			return res, err
		}
	}

	var res *Result
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cat := c.catalog.WithTx(tx)
		led := c.ledger.WithTx(tx)

		*state = StateReservingStock

		// 3. Customer row first, then products in barcode order
		customer, err := led.GetOrCreate(ctx, scope.TenantID, cart.CustomerName)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			product, err := cat.FindSellable(ctx, scope.TenantID, l.barcode)
			if err != nil {
				return apperr.WithField(err, l.field("barcode"))
			}
			if !product.SellingPrice.Valid {
				return apperr.Validation(l.field("barcode"), "product %s has no selling price", product.Name)
			}
			if _, err := cat.DecrementStock(ctx, scope.TenantID, product.ID, l.quantity); err != nil {
				return apperr.WithField(err, l.field("quantity"))
			}

			lineSubtotal := product.SellingPrice.Decimal.Mul(decimal.NewFromInt(int64(l.quantity)))
			subtotal = subtotal.Add(lineSubtotal)
			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				Quantity:     l.quantity,
				UnitPrice:    product.SellingPrice.Decimal,
				LineSubtotal: lineSubtotal,
			})
		}

		// 4. Totals
		totals := ComputeTotals(subtotal, cart.DiscountAmount, cart.AmountReceived, cart.AmountReturned)

		// 5. Order header and lines
		*state = StatePersisting
		order := models.Order{
			TenantID:       scope.TenantID,
			CustomerID:     customer.ID,
			Subtotal:       totals.Subtotal,
			Discount:       totals.Discount,
			Total:          totals.Total,
			AmountReceived: totals.AmountReceived,
			AmountReturned: totals.AmountReturned,
			LedgerDelta:    totals.LedgerDelta,
			CreatedBy:      scope.ActorID,
		}
		if cart.RequestKey != "" {
			order.RequestKey = &cart.RequestKey
		}
		ord := c.orders.WithTx(tx)
		if err := ord.CreateOrder(ctx, &order); err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := ord.CreateOrderItems(ctx, items); err != nil {
			return err
		}

		// 6. Ledger
		*state = StateLedgerUpdating
		balance, err := led.ApplyDelta(ctx, customer.ID, totals.LedgerDelta)
		if err != nil {
			return err
		}

		res = &Result{
			OrderID:        order.ID,
			CustomerID:     customer.ID,
			Subtotal:       totals.Subtotal,
			Discount:       totals.Discount,
			Total:          totals.Total,
			AmountReceived: totals.AmountReceived,
			AmountReturned: totals.AmountReturned,
			LedgerDelta:    totals.LedgerDelta,
			Balance:        balance,
		}
		_, err = events.Enqueue(tx, c.topic, strconv.FormatUint(uint64(order.ID), 10), events.TypeOrderCreated, scope.TenantID, res)
		return err
	})
	if err != nil {
		// Lost a race with the same idempotency key; the winner's order stands
		if cart.RequestKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			replayed, rerr := c.replay(ctx, scope.TenantID, cart, lines)
			switch {
			case replayed != nil:
				return replayed, nil
			case apperr.Is(rerr, apperr.KindValidation):
				return nil, rerr
			case rerr != nil:
				slog.Error("idempotent replay failed", "tenant_id", scope.TenantID, "error", rerr)
			}
		}
		return nil, database.Classify(err)
	}

	*state = StateCommitted
	return res, nil
}

// replay rebuilds the result of an order already created under the cart's
// key. A key reused for a different cart is rejected.
func (c *Coordinator) replay(ctx context.Context, tenantID uint, cart *Cart, lines []line) (*Result, error) {
	order, err := c.orders.FindByRequestKey(ctx, tenantID, cart.RequestKey)
	if err != nil || order == nil {
		return nil, err
	}
	customer, err := c.ledger.Get(ctx, tenantID, order.CustomerID)
	if err != nil {
		return nil, err
	}
	if !sameCart(order, customer, cart, lines) {
		return nil, apperr.Validation("idempotency_key", "reused with a different cart")
	}
	return &Result{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		Subtotal:       order.Subtotal,
		Discount:       order.Discount,
		Total:          order.Total,
		AmountReceived: order.AmountReceived,
		AmountReturned: order.AmountReturned,
		LedgerDelta:    order.LedgerDelta,
		Balance:        customer.Balance,
		Replayed:       true,
	}, nil
}

// sameCart reports whether cart would have produced order: same customer,
// same money in and the same quantity per barcode.
func sameCart(order *models.Order, customer *models.Customer, cart *Cart, lines []line) bool {
	returned := decimal.Min(cart.AmountReturned, cart.AmountReceived)
	if customer.Name != cart.CustomerName ||
		!order.AmountReceived.Equal(cart.AmountReceived) ||
		!order.AmountReturned.Equal(returned) ||
		!order.Discount.Equal(cart.DiscountAmount) {
		return false
	}

	want := make(map[string]int, len(lines))
	for _, l := range lines {
		want[l.barcode] += l.quantity
	}
	got := make(map[string]int, len(order.Items))
	for _, it := range order.Items {
		if it.Product == nil {
			return false
		}
		got[it.Product.Barcode] += it.Quantity
	}
	if len(want) != len(got) {
		return false
	}
	for barcode, qty := range want {
		if got[barcode] != qty {
			return false
		}
	}
	return true
}
