package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/crypto"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	sealer  *crypto.Sealer
	now     func() time.Time
}

type Option func(*SQLiteRepository)

// WithSealer seals notes at rest.
func WithSealer(s *crypto.Sealer) Option {
	return func(r *SQLiteRepository) { r.sealer = s }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}
	for _, o := range opts {
		o(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) InsertRecord(ctx context.Context, rec core.Record) error {
	row, err := r.toRow(rec)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		row.CreatedAt = formatTime(r.now())
	}
	row.UpdatedAt = row.CreatedAt
	if err := r.queries.InsertTransaction(ctx, row); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert transaction %s: %w", rec.ID, core.ErrDuplicateID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", rec.ID,
		"user_id", rec.UserID,
		"type", rec.Type,
		"date", rec.Date)
	return nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.Record) error {
	row, err := r.toRow(rec)
	if err != nil {
		return err
	}
	row.UpdatedAt = formatTime(r.now())
	n, err := r.queries.UpdateTransaction(ctx, row)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, userID, id string) (core.Record, error) {
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get transaction: %w", err)
	}
	return r.fromRow(ctx, row), nil
}

// ListRecords returns records newest first by date, then by insertion.
func (r *SQLiteRepository) ListRecords(ctx context.Context, userID string) ([]core.Record, error) {
	rows, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Record, len(rows))
	for i, row := range rows {
		out[i] = r.fromRow(ctx, row)
	}
	return out, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *SQLiteRepository) toRow(rec core.Record) (Row, error) {
	note := rec.Note
	if r.sealer != nil {
		sealed, err := r.sealer.Seal(note)
		if err != nil {
			return Row{}, fmt.Errorf("seal note: %w", err)
		}
		note = sealed
	}
	row := Row{
		ID:       rec.ID,
		UserID:   rec.UserID,
		Title:    rec.Title,
		Amount:   rec.Amount,
		Type:     rec.Type,
		Category: rec.Category,
		Date:     rec.Date,
		Note:     note,
	}
	if !rec.CreatedAt.IsZero() {
		row.CreatedAt = formatTime(rec.CreatedAt)
	}
	return row, nil
}

// fromRow never fails: a note that cannot be opened is dropped and logged
// so one bad row does not hide the rest.
func (r *SQLiteRepository) fromRow(ctx context.Context, row Row) core.Record {
	note := row.Note
	if r.sealer != nil {
		plain, err := r.sealer.Open(note)
		if err != nil {
			slog.WarnContext(ctx, "Unreadable transaction note",
				"id", row.ID,
				"user_id", row.UserID,
				"error", err)
			plain = ""
		}
		note = plain
	}
	created, _ := time.Parse(timeLayout, row.CreatedAt)
	return core.Record{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Amount:    row.Amount,
		Type:      row.Type,
		Category:  row.Category,
		Date:      row.Date,
		Note:      note,
		CreatedAt: created,
	}
}

// isDuplicate reports a primary key or unique violation.
func isDuplicate(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
