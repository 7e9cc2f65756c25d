package handlers

import (
	"net/http"
	"time"

	"go-pos-checkout/internal/catalog"
	"go-pos-checkout/internal/database"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Defaults to the last 30 days.
func GetSalesReport(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	end := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = *from
	}

	report, err := database.GetSalesReport(c.Request.Context(), scope.TenantID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func GetStockValuation(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	report, err := catalog.NewStore(database.DB).Valuation(c.Request.Context(), scope.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/low-stock ---
func GetLowStock(c *gin.Context) {
	scope, ok := scopeOf(c)
	if !ok {
		return
	}
	products, err := catalog.NewStore(database.DB).LowStock(c.Request.Context(), scope.TenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
