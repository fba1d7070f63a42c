package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/diewo77/go-stockpos/auth"
	"github.com/diewo77/go-stockpos/internal/config"
	"github.com/diewo77/go-stockpos/internal/db"
	"github.com/diewo77/go-stockpos/internal/idempotency"
	"github.com/diewo77/go-stockpos/internal/logging"
	"github.com/diewo77/go-stockpos/internal/policy"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

const (
	cleanupInterval = 10 * time.Minute
	cleanupBatch    = 500
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gdb, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(gdb, true, cfg.Database.MigrationURL()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrations completed")
		return nil
	}
	if *seedOnlyFlag {
		if err := db.Seed(gdb, cfg.App.CompanyName, cfg.App.Currency); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		logger.Info("seeding completed")
		return nil
	}

	if err := db.Migrate(gdb, cfg.App.Migrations, cfg.Database.MigrationURL()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if cfg.App.Seed {
		if err := db.Seed(gdb, cfg.App.CompanyName, cfg.App.Currency); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	if cfg.App.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, using the development secret")
	}
	auth.Configure(cfg.App.SessionSecret, cfg.App.SessionTTL, !cfg.App.Dev)

	routerCfg := policy.NewRouterConfig(gdb, policy.DefaultCacheTTL)
	auth.SetUserVerifier(routerCfg.Users.Active)

	app := NewApp(gdb, routerCfg, logger, idempotency.WithTTL(cfg.POS.IdempotencyTTL))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go cleanupIdempotency(ctx, gdb, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.Bool("dev", cfg.App.Dev))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// cleanupIdempotency purges expired idempotency records until ctx ends.
func cleanupIdempotency(ctx context.Context, gdb *gorm.DB, logger *zap.Logger) {
	store := idempotency.NewGormStore(gdb)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.CleanupExpired(ctx, now, cleanupBatch)
			if err != nil {
				logger.Warn("idempotency cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("idempotency records purged", zap.Int("count", n))
			}
		}
	}
}
