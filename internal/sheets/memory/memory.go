// Package memory is a report sink that keeps the latest report per user.
package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/aggregate"
)

type Sink struct {
	mu      sync.Mutex
	reports map[string]aggregate.Report
	writes  int
	fail    error
}

func New() *Sink {
	return &Sink{reports: make(map[string]aggregate.Report)}
}

// WriteReport replaces the user's stored report.
func (s *Sink) WriteReport(_ context.Context, userID string, r aggregate.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.reports[userID] = r
	s.writes++
	return nil
}

// FailWith makes subsequent writes return err; nil restores normal writes.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *Sink) Report(userID string) (aggregate.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[userID]
	return r, ok
}

// Users returns the users with a stored report, sorted.
func (s *Sink) Users() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.reports))
	for u := range s.reports {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// Writes counts successful writes.
func (s *Sink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
