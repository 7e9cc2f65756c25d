package tenant_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-checkout/internal/apperr"
	"go-pos-checkout/internal/dbtest"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/tenant"
)

type mapCache struct {
	entries map[uint]uint
	hits    int
}

func (m *mapCache) Get(_ context.Context, actorID uint) (uint, bool) {
	v, ok := m.entries[actorID]
	if ok {
		m.hits++
	}
	return v, ok
}

func (m *mapCache) Set(_ context.Context, actorID, tenantID uint) {
	m.entries[actorID] = tenantID
}

func TestResolve(t *testing.T) {
	db := dbtest.New(t)
	owner := dbtest.Owner(t, db, "owner")
	worker := dbtest.Worker(t, db, "cashier1", owner)
	ctx := context.Background()

	t.Run("Owner is its own tenant", func(t *testing.T) {
		scope, err := tenant.NewResolver(db, nil).Resolve(ctx, owner.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, scope.TenantID)
		assert.Equal(t, owner.ID, scope.ActorID)
		assert.True(t, scope.IsAdmin())
	})

	t.Run("Worker inherits the owner's tenant", func(t *testing.T) {
		scope, err := tenant.NewResolver(db, nil).Resolve(ctx, worker.ID, models.RoleCashier)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, scope.TenantID)
		assert.Equal(t, worker.ID, scope.ActorID)
		assert.False(t, scope.IsAdmin())
	})

	t.Run("Missing actor", func(t *testing.T) {
		_, err := tenant.NewResolver(db, nil).Resolve(ctx, 9999, models.RoleAdmin)
		assert.ErrorIs(t, err, tenant.ErrActorNotFound)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("Cache is filled then used", func(t *testing.T) {
		cache := &mapCache{entries: map[uint]uint{}}
		r := tenant.NewResolver(db, cache)

		_, err := r.Resolve(ctx, worker.ID, models.RoleCashier)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, cache.entries[worker.ID])

		scope, err := r.Resolve(ctx, worker.ID, models.RoleCashier)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, scope.TenantID)
		assert.Equal(t, 1, cache.hits)
	})
}
