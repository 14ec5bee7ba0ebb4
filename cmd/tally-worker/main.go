package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/sheets/google"
	"tally/internal/worker"
)

const cacheSweepInterval = 10 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting tally-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateMirror)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sheetsClient, err := google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(sheetsClient,
		worker.WithIndex(sheetsClient),
		worker.WithDedupe(worker.DefaultDedupeSize, cfg.MirrorDedupeTTL),
		worker.WithLogger(logger))

	caches := cache.NewManager(logger)
	caches.Register(mirrorWorker.Cache())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeTransactionCreated(gctx, mirrorWorker.HandleTransactionCreated)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		return caches.Run(gctx, cacheSweepInterval)
	})

	logger.Info("Worker started, waiting for transactions",
		"queue", cfg.AMQPQueue,
		"dedupe_ttl", cfg.MirrorDedupeTTL)

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed",
			applog.NewFields().
				WithError(err).
				WithOperation(applog.OpConsume).
				ToSlice()...)
		amqpClient.Close()
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
