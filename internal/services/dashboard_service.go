package services

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/feed"
	"fintrack/internal/ports"
)

// DashboardService serves read views. Each user's ingested collection is
// cached until the next write or TTL expiry; concurrent loads for the
// same user share one store read.
type DashboardService struct {
	store ports.RecordStore
	cache cache.Cache[core.IngestResult]
	hub   *feed.Hub
	opts  aggregate.Options
	now   func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	gen   map[string]uint64
}

// NewDashboardService wires the read side. A nil cache disables caching;
// a nil hub gets a private one.
func NewDashboardService(store ports.RecordStore, c cache.Cache[core.IngestResult], hub *feed.Hub, opts aggregate.Options) *DashboardService {
	if hub == nil {
		hub = feed.NewHub()
	}
	return &DashboardService{
		store: store,
		cache: c,
		hub:   hub,
		opts:  opts,
		now:   time.Now,
		gen:   make(map[string]uint64),
	}
}

// Notify drops the user's cached collection and wakes live watchers.
func (s *DashboardService) Notify(userID string) {
	s.mu.Lock()
	s.gen[userID]++
	s.mu.Unlock()
	s.group.Forget(userID)
	if s.cache != nil {
		s.cache.Delete(userID)
	}
	slog.Debug("Dashboard invalidated", "user_id", userID, "watchers", s.hub.Subscribers(userID))
	s.hub.Notify(userID)
}

func (s *DashboardService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[userID]
}

// Transactions returns the user's valid transactions, newest first, and
// the records ingestion skipped.
func (s *DashboardService) Transactions(ctx context.Context, userID string) (core.IngestResult, error) {
	if s.cache != nil {
		if res, ok := s.cache.Get(userID); ok {
			return res, nil
		}
	}
	v, err, _ := s.group.Do(userID, func() (any, error) {
		gen := s.generation(userID)
		records, err := s.store.ListRecords(ctx, userID)
		if err != nil {
			return core.IngestResult{}, fmt.Errorf("list records: %w", err)
		}
		res := core.Ingest(records)
		for _, sk := range res.Skipped {
			slog.WarnContext(ctx, "Skipping malformed record",
				"user_id", userID,
				"index", sk.Index,
				"id", sk.ID,
				"error", sk.Err)
		}
		// a write during the load makes this result stale
		if s.cache != nil && gen == s.generation(userID) {
			s.cache.Set(userID, res)
		}
		return res, nil
	})
	if err != nil {
		return core.IngestResult{}, err
	}
	return v.(core.IngestResult), nil
}

// Dashboard computes every dashboard view for the user's collection.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, c core.Criteria) (aggregate.Dashboard, error) {
	res, err := s.Transactions(ctx, userID)
	if err != nil {
		return aggregate.Dashboard{}, err
	}
	d := aggregate.BuildDashboard(res.Transactions, c, s.opts)
	d.Skipped = len(res.Skipped)
	return d, nil
}

// Report rolls up the user's full history.
func (s *DashboardService) Report(ctx context.Context, userID string) (aggregate.Report, error) {
	res, err := s.Transactions(ctx, userID)
	if err != nil {
		return aggregate.Report{}, err
	}
	return aggregate.BuildReport(userID, res.Transactions, s.now().UTC()), nil
}

// Watch yields the user's dashboard now and again after every change. The
// sequence is lazy and can be ranged over more than once.
func (s *DashboardService) Watch(ctx context.Context, userID string, c core.Criteria) iter.Seq2[feed.Snapshot[aggregate.Dashboard], error] {
	return feed.Watch(ctx, s.hub, userID, func(ctx context.Context) (aggregate.Dashboard, error) {
		return s.Dashboard(ctx, userID, c)
	})
}
