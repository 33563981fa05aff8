// main package for the syllable-stats-service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/aggregator"
	"github.com/book-expert/syllable-stats-service/internal/config"
	"github.com/book-expert/syllable-stats-service/internal/datastore"
	"github.com/book-expert/syllable-stats-service/internal/statsutils"
	"github.com/book-expert/syllable-stats-service/internal/worker"
	"github.com/nats-io/nats.go"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "syllable-stats-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

// serve wires the NATS connection, dataset store, aggregator, and worker,
// then blocks until shutdown.
func serve(cfg *config.Config, log *logger.Logger) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := datastore.New(jetstreamContext, cfg.NATS.DatasetObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize dataset store: %w", err)
	}

	policy := aggregator.CollisionOverwrite
	if cfg.Aggregator.ErrorOnCollision {
		policy = aggregator.CollisionError
	}

	progress := func(index, total int, remaining float64) {
		log.Info(
			"Processed file %d/%d, estimated remaining: %s",
			index+1, total, statsutils.FormatDuration(remaining),
		)
	}

	agg, err := aggregator.New(log, progress, policy)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	batchWorker, err := worker.NewNatsWorker(
		natsConnection,
		jetstreamContext,
		cfg.NATS.BatchBoundariesSubject,
		store,
		agg,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.System(
		"Syllable-stats-service successfully initialized. Listening for batches on subject: %s",
		cfg.NATS.BatchBoundariesSubject,
	)

	runErr := batchWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker stopped with error: %w", runErr)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
