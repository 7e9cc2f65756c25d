package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/auth"
	"go-pos-checkout/internal/tenant"

	"github.com/gin-gonic/gin"
)

const scopeKey = "scope"

// ScopeResolver turns an authenticated actor into its tenant scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, actorID uint, role string) (tenant.Scope, error)
}

// AuthMiddleware checks if the user has a valid JWT token and resolves the
// tenant the request acts in.
func AuthMiddleware(resolver ScopeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "kind": apperr.KindUnauthorized})
			return
		}

		// 2. Remove the "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer", "kind": apperr.KindUnauthorized})
			return
		}

		// 3. Validate the token using our auth package
		actorID, role, err := auth.ResolveActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "kind": apperr.KindUnauthorized})
			return
		}

		// 4. Actor -> tenant. A deleted actor's token is no longer honoured
		scope, err := resolver.Resolve(c.Request.Context(), actorID, role)
		if errors.Is(err, tenant.ErrActorNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists", "kind": apperr.KindUnauthorized})
			return
		}
		if err != nil {
			slog.Error("tenant resolution failed", "actor_id", actorID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not resolve account", "kind": apperr.KindInternal})
			return
		}

		// 5. Store the scope for handlers; the flat keys feed logging
		c.Set(scopeKey, scope)
		c.Set("userID", scope.ActorID)
		c.Set("tenantID", scope.TenantID)
		c.Set("role", scope.Role)

		c.Next()
	}
}

// ScopeFrom returns the scope set by AuthMiddleware.
func ScopeFrom(c *gin.Context) (tenant.Scope, bool) {
	v, ok := c.Get(scopeKey)
	if !ok {
		return tenant.Scope{}, false
	}
	scope, ok := v.(tenant.Scope)
	return scope, ok
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists || role != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}
