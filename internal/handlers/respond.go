package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go-pos-checkout/internal/ai"
	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/tenant"

	"github.com/gin-gonic/gin"
)

// Settings carries what the handlers need besides database.DB.
type Settings struct {
	BaseURL         string
	UploadDir       string
	CheckoutTimeout time.Duration
	EventTopic      string
	Metrics         *metrics.ServerMetrics
	Assistant       *ai.Agent
	RelayEnabled    bool
}

var settings = Settings{
	BaseURL:         "http://localhost:8080",
	UploadDir:       "./uploads",
	CheckoutTimeout: 10 * time.Second,
	EventTopic:      "pos.orders",
}

// Configure replaces the handler settings. Call before serving.
func Configure(s Settings) {
	if s.BaseURL == "" {
		s.BaseURL = settings.BaseURL
	}
	if s.UploadDir == "" {
		s.UploadDir = settings.UploadDir
	}
	if s.EventTopic == "" {
		s.EventTopic = settings.EventTopic
	}
	settings = s
}

// respondError renders err as {"error", "kind", "field", "details"} with the
// status of its kind. Internal causes are logged, not shown.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	body := gin.H{"error": err.Error(), "kind": kind}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		body["error"] = ae.Message
		if ae.Field != "" {
			body["field"] = ae.Field
		}
		if len(ae.Details) > 0 {
			body["details"] = ae.Details
		}
	}
	if kind == apperr.KindInternal {
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		body["error"] = "Internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// scopeOf returns the request's tenant scope or answers 401 itself.
func scopeOf(c *gin.Context) (tenant.Scope, bool) {
	scope, ok := middleware.ScopeFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "kind": apperr.KindUnauthorized})
	}
	return scope, ok
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation(name, "must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

// parseDateRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. to is inclusive for
// the caller and returned as the next midnight.
func parseDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(c, apperr.Validation("from", "must be YYYY-MM-DD"))
			return nil, nil, false
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respondError(c, apperr.Validation("to", "must be YYYY-MM-DD"))
			return nil, nil, false
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	if from != nil && to != nil && !from.Before(*to) {
		respondError(c, apperr.Validation("from", "must not be after to"))
		return nil, nil, false
	}
	return from, to, true
}
