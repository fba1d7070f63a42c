package db

import (
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/internal/models"
)

// DefaultMigrationsDir is where the SQL migrations live, relative to the
// working directory.
const DefaultMigrationsDir = "migrations"

// AutoMigrate creates or updates every table from the gorm models. Used for
// sqlite and local development.
func AutoMigrate(gdb *gorm.DB) error {
	for _, m := range models.All() {
		if err := gdb.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// RunSQLMigrations applies the versioned SQL migrations in dir to the
// postgres database at url.
func RunSQLMigrations(dir, url string) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Migrate brings the schema up to date: SQL migrations when sqlMigrations
// is set (postgres only), AutoMigrate otherwise. It then checks that the
// core tables exist.
func Migrate(gdb *gorm.DB, sqlMigrations bool, url string) error {
	if sqlMigrations && gdb.Dialector.Name() == "postgres" {
		if err := RunSQLMigrations(DefaultMigrationsDir, url); err != nil {
			return err
		}
	} else if err := AutoMigrate(gdb); err != nil {
		return err
	}
	for _, table := range []string{"users", "profiles", "products", "orders", "invoices"} {
		if !gdb.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}
