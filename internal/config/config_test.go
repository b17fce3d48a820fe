package config

import (
	"testing"

	"foodshare-backend/internal/application/lifecycle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "foodshare.db", cfg.SQLitePath)
	assert.Equal(t, lifecycle.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, "foodshare.events", cfg.AMQPExchange)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Postgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_PROD", "postgres://prod")
	t.Setenv("SESSION_SECRET", "prod-secret")
	t.Setenv("RESERVATION_POLICY", "quantity")
	t.Setenv("REQUEST_QUANTITY_CAP", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://prod", cfg.DatabaseURL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "prod-secret", cfg.SessionSecret)
	assert.Equal(t, lifecycle.ReserveWhenCovered, cfg.Policy.Reservation)
	assert.False(t, cfg.Policy.CapToRemaining)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL_DEV", "")
	t.Setenv("DATABASE_URL", "")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("RESERVATION_POLICY", "sometimes")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_ProductionNeedsSessionSecret(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_SECRET")
}
