package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/activities"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/config"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/database/backend"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/logging"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/workflows"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
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
	cfg, err := config.Load("airline-worker", args, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Temporal.Enabled {
		return errors.New("the confirmation worker requires temporal to be enabled")
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

	logger.Info("connecting to temporal", "host", cfg.Temporal.Host)
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Host,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	w := worker.New(c, workflows.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.OrderConfirmationWorkflow)
	activities.NewActivities(store).Register(w)

	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	logger.Info("confirmation worker started", "task_queue", workflows.TaskQueue)

	<-ctx.Done()
	logger.Info("stopping worker")
	w.Stop()
	return nil
}
