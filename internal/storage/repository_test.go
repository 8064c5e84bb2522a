package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/crypto"
)

func newRepo(t *testing.T, opts ...Option) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "test.db"), opts...)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(user, id, date string) core.Record {
	return core.Record{ID: id, UserID: user, Title: "Groceries", Amount: "42.50", Type: "expense", Category: "Food & Dining", Date: date}
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if err := repo.InsertRecord(ctx, record("u1", "a", "2025-03-01")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.GetRecord(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != "42.50" || got.Category != "Food & Dining" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := repo.GetRecord(ctx, "u2", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound across users, got %v", err)
	}

	upd := got
	upd.Title = "Supermarket"
	upd.Amount = "50"
	if err := repo.UpdateRecord(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetRecord(ctx, "u1", "a")
	if got.Title != "Supermarket" || got.Amount != "50" {
		t.Fatalf("update not applied: %+v", got)
	}
	if err := repo.UpdateRecord(ctx, record("u1", "missing", "2025-01-01")); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	if err := repo.DeleteRecord(ctx, "u1", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteRecord(ctx, "u1", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestRepositoryInsertDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if err := repo.InsertRecord(ctx, record("u1", "a", "2025-03-01")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertRecord(ctx, record("u1", "a", "2025-03-02")); !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
	if err := repo.InsertRecord(ctx, record("u2", "a", "2025-03-02")); err != nil {
		t.Fatalf("ids are scoped per user: %v", err)
	}
}

func TestRepositoryListOrderAndUsers(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	recs := []core.Record{
		record("u1", "jan", "2025-01-15"),
		record("u1", "feb-first", "2025-02-01"),
		record("u1", "feb-second", "2025-02-01"),
		record("u2", "other", "2025-06-01"),
	}
	for i, r := range recs {
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.InsertRecord(ctx, r); err != nil {
			t.Fatalf("insert %s: %v", r.ID, err)
		}
	}
	list, err := repo.ListRecords(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"feb-second", "feb-first", "jan"}
	if len(list) != len(want) {
		t.Fatalf("got %d records, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, list[i].ID, id)
		}
	}
	if !list[2].CreatedAt.Equal(base) {
		t.Fatalf("createdAt not preserved: %v", list[2].CreatedAt)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0] != "u1" || users[1] != "u2" {
		t.Fatalf("unexpected users: %v err=%v", users, err)
	}
}

func TestRepositoryKeepsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	bad := record("u1", "bad", "yesterday")
	bad.Amount = "abc"
	if err := repo.InsertRecord(ctx, bad); err != nil {
		t.Fatalf("insert: %v", err)
	}
	list, err := repo.ListRecords(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].Amount != "abc" {
		t.Fatalf("raw record should round-trip: %+v err=%v", list, err)
	}
}

func TestRepositorySealsNotes(t *testing.T) {
	ctx := context.Background()
	sealer, err := crypto.NewSealer(strings.Repeat("k", 32), strings.Repeat("s", 32))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	repo := newRepo(t, WithSealer(sealer))

	r := record("u1", "a", "2025-03-01")
	r.Note = "birthday gift"
	if err := repo.InsertRecord(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	raw, err := repo.queries.GetTransaction(ctx, "u1", "a")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if !strings.HasPrefix(raw.Note, crypto.Prefix) || strings.Contains(raw.Note, "birthday") {
		t.Fatalf("note stored in clear: %q", raw.Note)
	}

	got, _ := repo.GetRecord(ctx, "u1", "a")
	if got.Note != "birthday gift" {
		t.Fatalf("note not opened: %q", got.Note)
	}

	// A corrupted note comes back empty without failing the list.
	if _, err := repo.db.ExecContext(ctx, `UPDATE transactions SET note = ? WHERE id = ?`, crypto.Prefix+"x.y", "a"); err != nil {
		t.Fatalf("corrupt note: %v", err)
	}
	list, err := repo.ListRecords(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].Note != "" {
		t.Fatalf("expected empty note after corruption: %+v err=%v", list, err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
