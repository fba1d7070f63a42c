package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	cfg := Load()
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=localhost port=5432 user=stockpos password=stockpos dbname=stockpos sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, 24*time.Hour, cfg.POS.IdempotencyTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_NAME", "shop.db")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MIGRATIONS", "yes")
	t.Setenv("DEV", "0")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("IDEMPOTENCY_TTL_MINUTES", "5")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:shop.db?cache=shared&_foreign_keys=on", cfg.Database.DSN())
	assert.True(t, cfg.App.Migrations)
	assert.Equal(t, 5*time.Minute, cfg.POS.IdempotencyTTL)
	assert.Error(t, cfg.Validate(), "secret required outside dev")

	t.Setenv("SESSION_SECRET", "s")
	assert.NoError(t, Load().Validate())
}

func TestMigrationURL(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, DBName: "x", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/x?sslmode=require", d.MigrationURL())
	d.URL = "postgres://a@b/c"
	assert.Equal(t, "postgres://a@b/c", d.MigrationURL())
	assert.Equal(t, "postgres://a@b/c", d.DSN())
}
