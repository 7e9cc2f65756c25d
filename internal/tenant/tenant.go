// Package tenant resolves the catalog/ledger partition an actor works in.
// An owner account is its own tenant; workers act for the owner that created them.
package tenant

import (
	"context"
	"errors"
	"log/slog"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/models"

	"gorm.io/gorm"
)

var ErrActorNotFound = &apperr.Error{Kind: apperr.KindNotFound, Field: "actor", Message: "actor not found"}

// Scope is passed explicitly to every tenant-scoped operation.
type Scope struct {
	TenantID uint
	ActorID  uint
	Role     string
}

func (s Scope) IsAdmin() bool { return s.Role == models.RoleAdmin }

// Cache memoises actor -> tenant. Owner links never change after an actor
// is created, so entries only need to expire to bound memory.
type Cache interface {
	Get(ctx context.Context, actorID uint) (uint, bool)
	Set(ctx context.Context, actorID, tenantID uint)
}

type Resolver struct {
	db    *gorm.DB
	cache Cache
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(db *gorm.DB, cache Cache) *Resolver {
	return &Resolver{db: db, cache: cache}
}

// Resolve returns the scope actorID operates in.
func (r *Resolver) Resolve(ctx context.Context, actorID uint, role string) (Scope, error) {
	if r.cache != nil {
		if tenantID, ok := r.cache.Get(ctx, actorID); ok {
			return Scope{TenantID: tenantID, ActorID: actorID, Role: role}, nil
		}
	}

	var actor models.User
	err := r.db.WithContext(ctx).Select("id", "owner_id").First(&actor, actorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Scope{}, ErrActorNotFound
	}
	if err != nil {
		return Scope{}, apperr.Internal(err, "resolve tenant")
	}

	scope := Scope{TenantID: TenantOf(actor), ActorID: actor.ID, Role: role}
	if r.cache != nil {
		r.cache.Set(ctx, actorID, scope.TenantID)
	}
	slog.Debug("tenant resolved", "actor_id", actor.ID, "tenant_id", scope.TenantID)
	return scope, nil
}

// TenantOf applies the owner rule to an actor row.
func TenantOf(actor models.User) uint {
	if actor.OwnerID != nil && *actor.OwnerID != 0 {
		return *actor.OwnerID
	}
	return actor.ID
}
