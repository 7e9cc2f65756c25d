package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/middleware"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/tenant"
)

type stubResolver map[uint]uint

func (s stubResolver) Resolve(_ context.Context, actorID uint, role string) (tenant.Scope, error) {
	tenantID, ok := s[actorID]
	if !ok {
		return tenant.Scope{}, tenant.ErrActorNotFound
	}
	return tenant.Scope{TenantID: tenantID, ActorID: actorID, Role: role}, nil
}

func router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", middleware.AuthMiddleware(stubResolver{7: 3}))
	api.GET("/whoami", func(c *gin.Context) {
		scope, _ := middleware.ScopeFrom(c)
		c.JSON(http.StatusOK, gin.H{"tenant": scope.TenantID, "actor": scope.ActorID})
	})
	api.GET("/admin", middleware.RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func call(r *gin.Engine, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	auth.Init("middleware-secret", time.Hour)
	r := router()

	cashier, _ := auth.GenerateToken(7, models.RoleCashier)
	ghost, _ := auth.GenerateToken(99, models.RoleAdmin)

	t.Run("Missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(r, "/api/whoami", "").Code)
	})

	t.Run("Not a bearer token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(r, "/api/whoami", "Basic abc").Code)
	})

	t.Run("Bad token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(r, "/api/whoami", "Bearer nope").Code)
	})

	t.Run("Deleted actor", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, call(r, "/api/whoami", "Bearer "+ghost).Code)
	})

	t.Run("Valid token resolves the tenant", func(t *testing.T) {
		w := call(r, "/api/whoami", "Bearer "+cashier)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"tenant":3,"actor":7}`, w.Body.String())
	})

	t.Run("Role guard", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, call(r, "/api/admin", "Bearer "+cashier).Code)
	})
}
