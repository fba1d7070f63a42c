// Package db opens the gorm connection, applies migrations and seeds the
// reference data every installation needs.
package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-stockpos/internal/config"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(NormalizeDSN(cfg.DSN())), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Connect opens the database, retrying while postgres starts up.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	log.Info("connecting to database", zap.String("driver", cfg.Driver), zap.String("dsn", MaskDSN(cfg.DSN())))
	var gdb *gorm.DB
	for i := 1; i <= connectAttempts; i++ {
		gdb, err = gorm.Open(dial, gcfg)
		if err == nil {
			if err = gdb.Exec("SELECT 1").Error; err == nil {
				break
			}
		}
		log.Warn("database not ready, retrying", zap.Int("attempt", i), zap.Error(err))
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	return gdb, nil
}

// Ping reports whether the database answers.
func Ping(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
