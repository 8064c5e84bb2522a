package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp, os.Stdout)
	cfg := cli.LoadAndValidateConfig(logger, config.RoleServer)

	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	b := cli.OpenBackend(startCtx, logger, cfg)

	// change events are optional; without a broker the worker relies on
	// its periodic rebuild
	var opts []services.TransactionOption
	var publisher *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(startCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 30*time.Second)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", "error", err)
		} else {
			publisher = c
			opts = append(opts, services.WithPublisher(c))
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	svc := cli.NewServices(cfg, b, opts...)

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		logger.Error("Invalid auth configuration", "error", err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:       svc.Transactions,
		Dashboards:         svc.Dashboards,
		Verifier:           verifier,
		Logger:             logger,
		Ready:              b.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}

	var listener *amqp.Client
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		for _, c := range []*amqp.Client{publisher, listener} {
			if c == nil {
				continue
			}
			if err := c.Close(); err != nil {
				logger.Warn("AMQP close error", "error", err)
			}
		}
		if err := b.Close(); err != nil {
			logger.Warn("Backend close error", "error", err)
		}
	})

	stopCleanup := svc.StartCacheCleanup(ctx, cfg.CacheTTL)
	defer stopCleanup()

	// writes from other processes reach this cache and its streams through
	// a private copy of the change queue
	if publisher != nil {
		l, err := amqp.NewListener(startCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 30*time.Second)
		if err != nil {
			logger.Warn("AMQP listener unavailable, relying on cache TTL", "error", err)
		} else {
			listener = l
			go func() {
				if err := l.ConsumeChanges(ctx, svc.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Change listener stopped", "error", err)
				}
			}()
		}
	}

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", b.Type,
		"amqp_enabled", publisher != nil,
		"cache_size", cfg.CacheSize)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
