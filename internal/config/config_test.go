package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper(t *testing.T) {
	t.Run("Defaults fill everything but the secrets", func(t *testing.T) {
		t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/pos")
		t.Setenv("JWT_SECRET", "test-secret")

		cfg, err := FromViper(newViper())
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "mysql", cfg.DBDriver)
		assert.Equal(t, 10*time.Second, cfg.CheckoutTimeout)
		assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
		assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
		assert.Empty(t, cfg.KafkaBrokers)
		assert.False(t, cfg.AllowRegistration)
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("DB_DSN", "host=localhost dbname=pos")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("DB_DRIVER", "POSTGRES")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("CHECKOUT_TIMEOUT", "3s")
		t.Setenv("ALLOW_REGISTRATION", "true")

		cfg, err := FromViper(newViper())
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 3*time.Second, cfg.CheckoutTimeout)
		assert.True(t, cfg.AllowRegistration)
	})

	t.Run("Missing DSN is rejected", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "test-secret")

		_, err := FromViper(newViper())
		assert.ErrorContains(t, err, "DB_DSN")
	})

	t.Run("Unknown driver is rejected", func(t *testing.T) {
		t.Setenv("DB_DSN", "x")
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("DB_DRIVER", "oracle")

		_, err := FromViper(newViper())
		assert.ErrorContains(t, err, "DB_DRIVER")
	})
}
