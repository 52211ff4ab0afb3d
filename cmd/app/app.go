package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/powerpix/powerpix-api/internal/api"
	"github.com/powerpix/powerpix-api/internal/config"
	"github.com/powerpix/powerpix-api/internal/cron"
	"github.com/powerpix/powerpix-api/internal/db"
	"github.com/powerpix/powerpix-api/internal/logger"
	"github.com/powerpix/powerpix-api/internal/pkg/dedup"
	"github.com/powerpix/powerpix-api/internal/pkg/drawresults"
	"github.com/powerpix/powerpix-api/internal/pkg/gateway"
	"github.com/powerpix/powerpix-api/internal/repository/memory"
	"github.com/powerpix/powerpix-api/internal/service"
)

const shutdownTimeout = 15 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	s := api.NewServer(conf, stores, api.Externals{
		Gateway: gateway.NewClient(gateway.Config{
			BaseURL: conf.Gateway.BaseURL,
			APIKey:  conf.Gateway.APIKey,
			Timeout: conf.Gateway.Timeout,
		}),
		Results: drawresults.NewClient(drawresults.Config{
			BaseURL: conf.Results.BaseURL,
			Timeout: conf.Results.Timeout,
		}),
		Dedup: openDeduper(ctx, conf.Redis),
	})

	if conf.Admin.Username != "" {
		if _, err = s.Auth.EnsureAdmin(ctx, conf.Admin.Username, conf.Admin.Password); err != nil {
			return fmt.Errorf("failed to bootstrap admin -> %w", err)
		}
	}

	conf.OnChange(func(next *config.AppConfig, err error) {
		if err != nil {
			zap.L().Warn("config reload failed", zap.Error(err))
			return
		}
		reload(s.Pricing, next)
	})

	go s.Events.Run(ctx)

	if conf.Cron.Enabled {
		runner := cron.New(zap.L(), ctx)
		err = cron.Register(runner, cron.Schedule{
			Reconcile:          conf.Cron.Reconcile,
			ReconcileOlderThan: conf.Cron.ReconcileOlderThan,
			Results:            conf.Cron.Results,
		}, s.Payments, s.Results)
		if err != nil {
			return fmt.Errorf("failed to schedule jobs -> %w", err)
		}
		runner.Start()
		defer runner.Stop()
	}

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err = <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	zap.L().Info("shutting down")
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop the server -> %w", err)
	}

	return nil
}

func openStores(conf *config.AppConfig) (api.Stores, error) {
	if conf.Storage.Driver == config.StorageMemory {
		zap.L().Warn("using in-memory storage, data is lost on restart")
		return api.MemoryStores(memory.NewStore()), nil
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL != "" {
		postgresDB, err := db.OpenPostgresWithURL(dbURL)
		if err != nil {
			return api.Stores{}, err
		}
		return api.PostgresStores(postgresDB), nil
	}

	postgresDB, err := db.OpenPostgres(conf.Postgres)
	if err != nil {
		return api.Stores{}, err
	}

	return api.PostgresStores(postgresDB), nil
}

// openDeduper prefers redis so several instances share claims, and falls back to process memory.
func openDeduper(ctx context.Context, conf *config.RedisConfig) service.Deduper {
	if !conf.Enabled {
		return dedup.NewMemoryStore(conf.DedupTTL)
	}

	store := dedup.NewRedisStore(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	}, conf.DedupTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		zap.L().Warn("redis unavailable, webhook dedup stays in memory", zap.String("addr", conf.Addr), zap.Error(err))
		return dedup.NewMemoryStore(conf.DedupTTL)
	}

	return store
}

func reload(pricing *service.PricingService, next *config.AppConfig) {
	logger.SetLevel(next.Log.Level)

	defaults, err := next.Pricing.Defaults()
	if err != nil {
		zap.L().Warn("ignoring invalid pricing defaults", zap.Error(err))
		return
	}
	if err := pricing.SetDefaults(defaults); err != nil {
		zap.L().Warn("ignoring invalid pricing defaults", zap.Error(err))
		return
	}
	zap.L().Info("pricing defaults reloaded", zap.Stringer("price", defaults.BasePrice))
}
