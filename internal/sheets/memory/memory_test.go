package memory

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/aggregate"
)

func TestSinkKeepsLatestReport(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.WriteReport(ctx, "u2", aggregate.Report{UserID: "u2", Count: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteReport(ctx, "u1", aggregate.Report{UserID: "u1", Count: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteReport(ctx, "u1", aggregate.Report{UserID: "u1", Count: 5}); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, ok := s.Report("u1")
	if !ok || r.Count != 5 {
		t.Fatalf("expected latest report, got %+v ok=%v", r, ok)
	}
	if users := s.Users(); len(users) != 2 || users[0] != "u1" {
		t.Fatalf("unexpected users: %v", users)
	}
	if s.Writes() != 3 {
		t.Fatalf("writes = %d, want 3", s.Writes())
	}
}

func TestSinkFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	if err := s.WriteReport(context.Background(), "u1", aggregate.Report{}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, ok := s.Report("u1"); ok {
		t.Fatalf("failed write must not be stored")
	}
	s.FailWith(nil)
	if err := s.WriteReport(context.Background(), "u1", aggregate.Report{}); err != nil {
		t.Fatalf("write after reset: %v", err)
	}
}
