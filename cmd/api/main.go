package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/marketadmin-backend/api/routes"
	"github.com/angelmondragon/marketadmin-backend/internal/activitylog"
	"github.com/angelmondragon/marketadmin-backend/internal/catalog"
	"github.com/angelmondragon/marketadmin-backend/internal/commissions"
	"github.com/angelmondragon/marketadmin-backend/internal/users"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/config"
	"github.com/angelmondragon/marketadmin-backend/pkg/db"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
	"github.com/angelmondragon/marketadmin-backend/pkg/metrics"
	"github.com/angelmondragon/marketadmin-backend/pkg/migrate"
	"github.com/angelmondragon/marketadmin-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	commissionService, vendorService, err := buildServices(cfg, logg, dbClient, registry)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, registry, dbClient, redisClient, redisClient, commissionService, vendorService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(serverCtx, "error during shutdown", closeErr)
		os.Exit(1)
	}
	logg.Info(serverCtx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (commissions.Service, vendors.Service, error) {
	gdb := dbClient.DB()

	audit, err := activitylog.NewService(activitylog.NewRepository(gdb), logg)
	if err != nil {
		return nil, nil, err
	}

	userRepo := users.NewRepository(gdb)
	vendorRepo := vendors.NewRepository(gdb)

	commissionService, err := commissions.NewService(commissions.ServiceParams{
		Tx:              dbClient,
		VendorTypes:     commissions.NewVendorTypeStore(gdb),
		TimePeriods:     commissions.NewTimePeriodStore(gdb),
		OfferTypes:      commissions.NewOfferTypeStore(gdb),
		Users:           userRepo,
		Vendors:         vendorRepo,
		Catalog:         catalog.NewRepository(gdb),
		Audit:           audit,
		Metrics:         metrics.NewCommissionMetrics(reg),
		Logger:          logg,
		DefaultPageSize: cfg.Commission.DefaultPageSize,
		MaxPageSize:     cfg.Commission.MaxPageSize,
	})
	if err != nil {
		return nil, nil, err
	}

	vendorService, err := vendors.NewService(dbClient, vendorRepo, userRepo, commissionService, audit, logg)
	if err != nil {
		return nil, nil, err
	}
	return commissionService, vendorService, nil
}
