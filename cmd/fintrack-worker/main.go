package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger, config.RoleWorker)

	logger.Info("Starting fintrack-worker")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	b := cli.OpenBackend(startCtx, logger, cfg)
	if b.Type == backend.MemoryBackend {
		logger.Warn("Worker is using a private memory store; reports only reflect its seed data")
	}
	svc := cli.NewServices(cfg, b)

	sheets, err := gsheet.New(startCtx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetPrefix:     cfg.GoogleSheetPrefix,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(startCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 0)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	reports := worker.NewReportWorker(svc.Dashboards, b.Store, sheets, cfg.ReportConcurrency)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := consumer.Close(); err != nil {
			logger.Warn("AMQP close error", "error", err)
		}
		if err := b.Close(); err != nil {
			logger.Warn("Backend close error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the cached collection may predate the event that woke us
		return consumer.ConsumeChanges(gctx, func(ctx context.Context, ev core.ChangeEvent) error {
			_ = svc.HandleChange(ctx, ev)
			return reports.HandleChange(ctx, ev)
		})
	})
	g.Go(func() error {
		return reports.Run(gctx, cfg.ReportInterval)
	})

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"concurrency", cfg.ReportConcurrency,
		"interval", cfg.ReportInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
