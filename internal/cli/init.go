// Package cli provides common process initialization for cmd/fintrack,
// cmd/fintrack-worker and cmd/fintrackctl.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/aggregate"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/feed"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and makes it the
// slog default, so library packages logging through slog share it.
func SetupLogger(component string, out io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: component,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it for role.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger, role config.Role) *config.Config {
	cfg := config.Load()
	if err := cfg.ValidateFor(role); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend creates the configured record store or exits the process.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bc)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// Services is the write and read side over one store.
type Services struct {
	Transactions *services.TransactionService
	Dashboards   *services.DashboardService
	Hub          *feed.Hub
	Cache        *cache.LRUCache[core.IngestResult]
}

// NewServices wires both services to the backend's store. The dashboard
// is always notified of writes; opts can add a change publisher.
func NewServices(cfg *config.Config, b *backend.BackendResult, opts ...services.TransactionOption) *Services {
	hub := feed.NewHub()
	var c *cache.LRUCache[core.IngestResult]
	var dashCache cache.Cache[core.IngestResult]
	if cfg.CacheSize > 0 {
		c = cache.NewLRUCache[core.IngestResult](cfg.CacheSize, cfg.CacheTTL)
		dashCache = c
	}
	dash := services.NewDashboardService(b.Store, dashCache, hub, aggregate.Options{})
	opts = append([]services.TransactionOption{services.WithNotifier(dash)}, opts...)
	return &Services{
		Transactions: services.NewTransactionService(b.Store, opts...),
		Dashboards:   dash,
		Hub:          hub,
		Cache:        c,
	}
}

// HandleChange refreshes the user's dashboard after a write made by
// another process, such as fintrackctl against a shared database.
func (s *Services) HandleChange(_ context.Context, ev core.ChangeEvent) error {
	s.Dashboards.Notify(ev.UserID)
	return nil
}

// StartCacheCleanup drops expired dashboard entries every interval until
// ctx ends or the returned stop is called.
func (s *Services) StartCacheCleanup(ctx context.Context, interval time.Duration) (stop func()) {
	m := cache.NewManager()
	if s.Cache == nil {
		return m.Stop
	}
	if interval <= 0 {
		interval = time.Minute
	}
	m.Register(s.Cache)
	m.StartCleanup(ctx, interval)
	return m.Stop
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM,
// then runs cleanup with at most timeout to finish. done is closed once
// cleanup returned or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			defer close(finished)
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
