package handlers

import (
	"net/http"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/orders"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/orders/:id ---
func GetOrder(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := orders.NewStore(database.DB).GetByID(c.Request.Context(), scope.TenantID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// --- GET: /api/orders?from=YYYY-MM-DD&to=YYYY-MM-DD ---
func ListOrders(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	list, total, err := orders.NewStore(database.DB).ListByTenant(c.Request.Context(), scope.TenantID, orders.DateRange{From: from, To: to})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":      list,
		"total_sales": total,
		"count":       len(list),
	})
}
