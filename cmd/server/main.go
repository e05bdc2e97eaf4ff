// Package main is the entry point for the market-data service. It wires all
// dependencies using samber/do v2, preloads the configured symbol feeds,
// starts the HTTP server, and handles graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/samber/do/v2"

	adapthttp "github.com/quantstream/marketd/internal/adapters/http"
	"github.com/quantstream/marketd/internal/adapters/http/handlers"
	"github.com/quantstream/marketd/internal/adapters/http/middleware"

	"github.com/quantstream/marketd/internal/adapters/clients/yahoo"
	"github.com/quantstream/marketd/internal/adapters/smtp"
	csvstore "github.com/quantstream/marketd/internal/adapters/storage/csv"
	"github.com/quantstream/marketd/internal/app"
	"github.com/quantstream/marketd/internal/domain/analytics"
	"github.com/quantstream/marketd/internal/domain/notify"
	"github.com/quantstream/marketd/internal/platform/config"
	"github.com/quantstream/marketd/internal/platform/health"
	"github.com/quantstream/marketd/internal/platform/httpclient"
	"github.com/quantstream/marketd/internal/platform/logging"
	"github.com/quantstream/marketd/internal/platform/telemetry"
	"github.com/quantstream/marketd/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register health checkers after the graph is wired.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(do.MustInvoke[*httpclient.Client](injector))
	registry.Register(do.MustInvoke[*csvstore.Store](injector))

	manager := do.MustInvoke[*app.Manager](injector)
	registry.Register(manager)

	// Preload the configured symbol feeds in the background; readiness
	// reports not_ready until every feed has its daily series.
	go manager.Preload(ctx)

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: stop the feed loops, then drain HTTP requests.
	// History keeps serving in-memory snapshots while the server drains.
	manager.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Quotes, "quote-api", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.QuoteClient, error) {
		client := do.MustInvoke[*httpclient.Client](i)
		return yahoo.New(client, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (*csvstore.Store, error) {
		return csvstore.New(cfg.Market.DataDir, logger)
	})

	do.Provide(injector, func(_ do.Injector) (*analytics.Registry, error) {
		return analytics.NewRegistry(
			analytics.NewSMA(cfg.Analytics.SMA.Window, cfg.Analytics.SMA.ThresholdPct),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*app.Manager, error) {
		deps := app.FeedDeps{
			Quotes:     do.MustInvoke[ports.QuoteClient](i),
			Store:      do.MustInvoke[*csvstore.Store](i),
			Strategies: do.MustInvoke[*analytics.Registry](i),
			Tracker:    notify.NewTracker(cfg.Mail.Cooldown),
			Mailer:     smtp.New(cfg.Mail, logger),
			Metrics:    do.MustInvoke[*telemetry.Metrics](i),
			Logger:     logger,
		}
		return app.NewManager(cfg.Market, deps), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.MarketHandler, error) {
		manager := do.MustInvoke[*app.Manager](i)
		return handlers.NewMarketHandler(manager), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.WSHandler, error) {
		manager := do.MustInvoke[*app.Manager](i)
		return handlers.NewWSHandler(manager, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		marketH := do.MustInvoke[*handlers.MarketHandler](i)
		wsH := do.MustInvoke[*handlers.WSHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(marketH, wsH, healthH,
			cfg.Server.WriteTimeout,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
