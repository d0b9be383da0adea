package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/cartflow/api/controllers"
	"github.com/angelmondragon/cartflow/api/routes"
	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/internal/orders"
	"github.com/angelmondragon/cartflow/internal/products"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/pkg/bus"
	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/db"
	"github.com/angelmondragon/cartflow/pkg/instance"
	"github.com/angelmondragon/cartflow/pkg/logger"
	"github.com/angelmondragon/cartflow/pkg/metrics"
	"github.com/angelmondragon/cartflow/pkg/migrate"
	"github.com/angelmondragon/cartflow/pkg/notify"
	"github.com/angelmondragon/cartflow/pkg/pubsub"
	"github.com/angelmondragon/cartflow/pkg/redis"
	"github.com/angelmondragon/cartflow/pkg/shutdown"
)

// transport is the selected bus plus what it needs at runtime.
type transport struct {
	bus    bus.Bus
	pinger controllers.Pinger
	run    func(ctx context.Context) error
	close  func() error
}

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
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server shut down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	tr, err := buildTransport(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := tr.close(); err != nil {
			logg.Error(context.Background(), "error closing bus", err)
		}
	}()

	productService, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient, tr.bus, logg)
	if err != nil {
		return fmt.Errorf("create product service: %w", err)
	}
	orderService, err := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		return fmt.Errorf("create order service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	manager, err := sessions.NewManager(sessions.Config{
		Template: cart.Options{
			Products:          productService,
			Orders:            orderService,
			Bus:               tr.bus,
			Logger:            logg,
			Metrics:           metrics.NewCartMetrics(registry),
			QuantityDebounce:  cfg.Cart.QuantityDebounce,
			PreserveSelection: cfg.Cart.PreserveSelection,
		},
		FeedLimit:  cfg.Cart.NotificationBuffer,
		Logger:     logg,
		Notifier:   notify.NewLogNotifier(logg),
		CloseGrace: cfg.App.ShutdownGrace,
	})
	if err != nil {
		return fmt.Errorf("create session manager: %w", err)
	}

	readiness := map[string]controllers.Pinger{"database": dbClient}
	if tr.pinger != nil {
		readiness["bus"] = tr.pinger
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, readiness, manager, productService, registry),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"transport": cfg.Bus.Transport,
		"instance":  instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if tr.run != nil {
		g.Go(func() error { return tr.run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := shutdown.Graceful(cfg.App.ShutdownGrace)
		defer cancel()

		logg.Info(logCtx, "shutting down api server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "http shutdown failed", err)
		}
		if err := manager.Close(shutdownCtx); err != nil {
			logg.Error(logCtx, "closing cart sessions failed", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildTransport(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Bus.Transport)) {
	case config.BusTransportRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		return &transport{bus: redis.NewBus(client, logg), pinger: client, close: client.Close}, nil

	case config.BusTransportPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap pubsub: %w", err)
		}
		pubsubBus, err := pubsub.NewBus(client, logg)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("create pubsub bus: %w", err)
		}
		return &transport{
			bus:    pubsubBus,
			pinger: client,
			run:    pubsubBus.Run,
			close: func() error {
				return multierr.Combine(pubsubBus.Close(), client.Close())
			},
		}, nil

	default:
		memory := bus.NewMemory(0, logg)
		return &transport{bus: memory, close: memory.Close}, nil
	}
}
