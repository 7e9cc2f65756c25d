package handlers

import (
	"net/http"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/ledger"
	"go-pos-checkout/internal/orders"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
}

// --- GET: /api/customers ---
func ListCustomers(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	customers, err := ledger.New(database.DB, settings.EventTopic).List(c.Request.Context(), scope.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

// --- GET: /api/customers/:id/orders ---
func CustomerOrders(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	customer, err := ledger.New(database.DB, settings.EventTopic).Get(ctx, scope.TenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := orders.NewStore(database.DB).ListByCustomer(ctx, scope.TenantID, customer.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer, "orders": list})
}

// --- POST: /api/customers/payments ---
func RecordPayment(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", "invalid payment request: %v", err))
		return
	}

	res, err := ledger.New(database.DB, settings.EventTopic).RecordPayment(c.Request.Context(), scope.TenantID, req.CustomerName, req.Amount, scope.ActorID)
	if err != nil {
		respondError(c, err)
		return
	}
	settings.Metrics.PaymentRecorded()
	c.JSON(http.StatusCreated, res)
}

// --- GET: /api/customers/:id/statement ---
// Replays the customer's history and reports drift as a 500.
func CustomerStatement(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	st, err := ledger.New(database.DB, settings.EventTopic).Verify(c.Request.Context(), scope.TenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
