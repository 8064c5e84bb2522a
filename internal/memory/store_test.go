package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
)

func rec(user, id, date string, created time.Time) core.Record {
	return core.Record{ID: id, UserID: user, Title: "t", Amount: "10", Type: "expense", Category: "Food & Dining", Date: date, CreatedAt: created}
}

func TestStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.InsertRecord(ctx, rec("u1", "a", "2025-03-01", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertRecord(ctx, rec("u1", "a", "2025-03-01", now)); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := s.InsertRecord(ctx, core.Record{ID: "x"}); err == nil {
		t.Fatalf("expected insert without user to fail")
	}

	got, err := s.GetRecord(ctx, "u1", "a")
	if err != nil || got.Amount != "10" {
		t.Fatalf("get: %+v err=%v", got, err)
	}
	if _, err := s.GetRecord(ctx, "u2", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected other user's record to be hidden, got %v", err)
	}

	upd := rec("u1", "a", "2025-03-02", time.Time{})
	upd.Amount = "20"
	if err := s.UpdateRecord(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetRecord(ctx, "u1", "a")
	if got.Amount != "20" || !got.CreatedAt.Equal(now) {
		t.Fatalf("update should replace fields and keep createdAt: %+v", got)
	}
	if err := s.UpdateRecord(ctx, rec("u1", "missing", "2025-01-01", now)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteRecord(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteRecord(ctx, "u1", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 0 {
		t.Fatalf("users with no records should not be listed: %v", users)
	}
}

func TestStoreListOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []core.Record{
		rec("u1", "old", "2025-01-01", t0),
		rec("u1", "new-late", "2025-02-01", t0.Add(2*time.Hour)),
		rec("u1", "new-early", "2025-02-01", t0.Add(time.Hour)),
		rec("u2", "other", "2025-05-01", t0),
	} {
		if err := s.InsertRecord(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}
	list, err := s.ListRecords(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"new-late", "new-early", "old"}
	if len(list) != len(want) {
		t.Fatalf("got %d records, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, list[i].ID, id)
		}
	}
	users, _ := s.ListUsers(ctx)
	if len(users) != 2 || users[0] != "u1" || users[1] != "u2" {
		t.Fatalf("unexpected users: %v", users)
	}
}

func TestNewFromFileKeepsRawRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	content := `[
		{"id":"1","title":"Salary","amount":75000,"type":"income","category":"Salary","date":"2025-03-10"},
		{"title":"Broken","amount":"abc","type":"expense","category":"Food & Dining","date":"2025-03-09","userId":"u2"}
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err := NewFromFile(path, "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := s.GetRecord(context.Background(), "demo", "1")
	if err != nil || got.Amount != "75000" {
		t.Fatalf("numeric amount should be kept as text: %+v err=%v", got, err)
	}
	broken, err := s.ListRecords(context.Background(), "u2")
	if err != nil || len(broken) != 1 || broken[0].Amount != "abc" || broken[0].ID != "seed-2" {
		t.Fatalf("malformed records should be stored untouched: %+v err=%v", broken, err)
	}

	if _, err := NewFromFile(filepath.Join(dir, "missing.json"), "demo"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
