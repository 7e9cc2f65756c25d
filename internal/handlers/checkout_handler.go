package handlers

import (
	"net/http"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/checkout"
	"go-pos-checkout/internal/database"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

// --- POST: /api/checkout ---
func Checkout(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}

	// 1. Parse the cart
	var cart checkout.Cart
	if err := c.ShouldBindJSON(&cart); err != nil {
		respondError(c, apperr.Validation("body", "invalid checkout request: %v", err))
		return
	}
	cart.RequestKey = strings.TrimSpace(c.GetHeader(IdempotencyHeader))

	// 2. Run the whole sale as one unit of work
	coord := checkout.New(database.DB, checkout.Options{
		Timeout: settings.CheckoutTimeout,
		Topic:   settings.EventTopic,
		Metrics: settings.Metrics,
	})
	res, err := coord.Checkout(c.Request.Context(), scope, cart)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. A replay is not a new resource
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
