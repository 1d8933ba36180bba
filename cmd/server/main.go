package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/api"
	"github.com/synapsehq/synapse/internal/config"
	"github.com/synapsehq/synapse/internal/consolidation"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/logging"
	"github.com/synapsehq/synapse/internal/storage/memstore"
	"github.com/synapsehq/synapse/internal/storage/postgres"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := logging.New(config.LogLevel())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	gw, closer := newStorageGateway(ctx, logger)

	app, err := api.New(gw, closer, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}

	app.Consolidator.Start(func(ctx context.Context) ([]consolidation.Tenant, error) {
		var tenants []consolidation.Tenant
		for _, t := range config.ConsolidationTenants() {
			tenants = append(tenants, consolidation.Tenant{UserID: t.UserID, AgentID: t.AgentID})
		}
		return tenants, nil
	})

	addr := config.ServerAddr()
	srv := &http.Server{Addr: addr, Handler: app.Router}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Queue.Stop()
	app.Consolidator.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	if app.StorageCloser != nil {
		app.StorageCloser()
	}

	logger.Info("server stopped")
}

// newStorageGateway selects the StorageGateway backing per STORAGE_BACKEND:
// "postgres" requires DATABASE_URL and runs against pgx/pgvector; anything
// else (including unset) falls back to the in-memory adapter, which is
// enough to run the full pipeline without a database.
func newStorageGateway(ctx context.Context, logger *zap.Logger) (domain.StorageGateway, func()) {
	if config.StorageBackend() != "postgres" {
		logger.Info("using in-memory storage gateway")
		return memstore.New(), nil
	}

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	return postgres.New(pool), pool.Close
}
