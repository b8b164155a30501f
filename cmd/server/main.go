// Command servista starts the marketplace identity and directory server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/servista/servista/internal/config"
	"github.com/servista/servista/internal/geocode"
	"github.com/servista/servista/internal/migrate"
	"github.com/servista/servista/internal/redis"
	"github.com/servista/servista/internal/repository/postgres"
	"github.com/servista/servista/internal/resolver"
	httpserver "github.com/servista/servista/internal/server/http"
	"github.com/servista/servista/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	cfg := config.Load()

	// Flags override the environment.
	addr := flag.String("addr", cfg.Addr, "listen address")
	dsn := flag.String("dsn", cfg.DatabaseDSN, "PostgreSQL DSN")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, *dsn); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, *dsn)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Session store
	rdb, err := redis.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis.New", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()
	sessions := session.NewRedisStore(rdb.Client)

	// Repositories
	clientRepo := postgres.NewClientRepo(db)
	providerRepo := postgres.NewProviderRepo(db)

	// Collaborators and resolvers
	geo := geocode.New(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey)
	clients := resolver.NewClientResolver(clientRepo, logger)
	providers := resolver.NewProviderResolver(providerRepo, geo, logger)

	srv := httpserver.New(clients, providers, sessions, cfg.SessionTTL, cfg.CookieSecure, logger)
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
