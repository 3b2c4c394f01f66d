package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/config"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/backend"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/geo"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/handlers"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/logging"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/router"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/service"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/websocket"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/workflows"
	"go.temporal.io/sdk/client"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, config.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("airline-server", args, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	cities := geo.NewCachedSource(
		geo.NewCSVSource(cfg.Cities.Path, logger),
		geo.NewCoordinateCache(cfg.Cities.CacheTTL, cfg.Cities.CacheSize),
	)

	svc, err := service.New(service.Config{Store: store, Cities: cities, Logger: logger})
	if err != nil {
		return err
	}

	// Live seat updates
	hub := websocket.NewHub(logger)
	svc.AddObserver(hub)

	if cfg.Temporal.Enabled {
		temporalClient, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create Temporal client: %w", err)
		}
		defer temporalClient.Close()
		svc.AddObserver(workflows.NewStarter(temporalClient, logger))
		logger.Info("connected to temporal", "host", cfg.Temporal.Host)
	}

	var limiter *router.RateLimiter
	if cfg.Orders.RatePerMinute > 0 {
		limiter = router.NewRateLimiter(cfg.Orders.RatePerMinute, cfg.Orders.Burst)
	}

	h := handlers.NewHandler(svc, hub, logger)
	r := router.SetupRouter(router.Config{
		Handler:      h,
		Verifier:     auth.NewVerifier([]byte(cfg.Auth.Secret)),
		Logger:       logger,
		OrderLimiter: limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("api server starting", "port", cfg.Server.Port, "database", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
