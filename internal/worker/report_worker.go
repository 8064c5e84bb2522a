// Package worker keeps external per-user reports in step with the
// transaction store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Reporter builds a user's report from current data.
type Reporter interface {
	Report(ctx context.Context, userID string) (aggregate.Report, error)
}

// UserLister enumerates users with data.
type UserLister interface {
	ListUsers(ctx context.Context) ([]string, error)
}

// ReportWorker rewrites a user's report whenever their transactions change.
// Rebuilding is idempotent, so duplicate or reordered events are harmless.
type ReportWorker struct {
	reports     Reporter
	users       UserLister
	sink        ports.ReportWriter
	concurrency int

	mu      sync.Mutex
	running bool
}

func NewReportWorker(reports Reporter, users UserLister, sink ports.ReportWriter, concurrency int) *ReportWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ReportWorker{
		reports:     reports,
		users:       users,
		sink:        sink,
		concurrency: concurrency,
	}
}

// HandleChange rebuilds the report of the user named in ev.
func (w *ReportWorker) HandleChange(ctx context.Context, ev core.ChangeEvent) error {
	slog.InfoContext(ctx, "Processing change event",
		"user_id", ev.UserID,
		"transaction_id", ev.TransactionID,
		"op", ev.Op)
	return w.Rebuild(ctx, ev.UserID)
}

// Rebuild computes and writes one user's report.
func (w *ReportWorker) Rebuild(ctx context.Context, userID string) error {
	start := time.Now()
	r, err := w.reports.Report(ctx, userID)
	if err != nil {
		return fmt.Errorf("build report for %s: %w", userID, err)
	}
	if err := w.sink.WriteReport(ctx, userID, r); err != nil {
		return fmt.Errorf("write report for %s: %w", userID, err)
	}
	slog.InfoContext(ctx, "Report written",
		"user_id", userID,
		"transactions", r.Count,
		"months", len(r.Months),
		"duration", time.Since(start))
	return nil
}

// RebuildAll rewrites every user's report, at most concurrency at a time.
// A failing user does not stop the others; all failures are returned.
func (w *ReportWorker) RebuildAll(ctx context.Context) error {
	users, err := w.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(w.concurrency)
	for _, u := range users {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := w.Rebuild(ctx, u); err != nil {
				slog.ErrorContext(ctx, "Report rebuild failed", "user_id", u, "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Rebuilt all reports", "users", len(users), "failed", len(errs))
	return errors.Join(errs...)
}

// Run rebuilds every report at startup and then every interval until ctx
// ends, covering events lost while the worker was down. interval <= 0
// only runs the startup pass.
func (w *ReportWorker) Run(ctx context.Context, interval time.Duration) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("report worker is already running")
	}
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if err := w.RebuildAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup report rebuild incomplete", "error", err)
	}
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.RebuildAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic report rebuild incomplete", "error", err)
			}
		}
	}
}
