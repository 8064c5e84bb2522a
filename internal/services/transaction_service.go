package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Notifier is told when a user's collection changed.
type Notifier interface {
	Notify(userID string)
}

// TransactionService orchestrates writes across the store, the live feed,
// the dashboard cache and the change publisher. Only the store write can
// fail a call.
type TransactionService struct {
	store     ports.RecordStore
	publisher ports.ChangePublisher
	notifiers []Notifier
	newID     func() string
	now       func() time.Time
}

type TransactionOption func(*TransactionService)

// WithPublisher publishes a change event after every successful write.
func WithPublisher(p ports.ChangePublisher) TransactionOption {
	return func(s *TransactionService) { s.publisher = p }
}

// WithNotifier adds a listener woken after every successful write.
func WithNotifier(n Notifier) TransactionOption {
	return func(s *TransactionService) { s.notifiers = append(s.notifiers, n) }
}

func NewTransactionService(store ports.RecordStore, opts ...TransactionOption) *TransactionService {
	s := &TransactionService{
		store: store,
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates input and stores a new transaction for userID.
func (s *TransactionService) Create(ctx context.Context, userID string, in core.TransactionInput) (core.Transaction, error) {
	t, err := in.Build()
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = s.newID()
	t.UserID = userID
	t.CreatedAt = s.now().UTC()

	if err := s.store.InsertRecord(ctx, t.ToRecord()); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		"user_id", userID,
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String())

	s.changed(ctx, userID, t.ID, core.OpCreated)
	return t, nil
}

// Update replaces every editable field of an existing transaction.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in core.TransactionInput) (core.Transaction, error) {
	t, err := in.Build()
	if err != nil {
		return core.Transaction{}, err
	}
	old, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	t.ID = id
	t.UserID = userID
	t.CreatedAt = old.CreatedAt

	if err := s.store.UpdateRecord(ctx, t.ToRecord()); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.changed(ctx, userID, id, core.OpUpdated)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteRecord(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "user_id", userID, "id", id)
	s.changed(ctx, userID, id, core.OpDeleted)
	return nil
}

// Get returns one validated transaction. A stored record that no longer
// validates is reported with its parse error.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	r, err := s.store.GetRecord(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t, err := r.Parse()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored transaction %s: %w", id, err)
	}
	return t, nil
}

// ImportResult reports what Import stored and what it left out.
type ImportResult struct {
	Inserted int
	Skipped  []core.SkippedRecord
}

// Import validates records and stores the valid ones for userID. Records
// without an id get one. A record that fails validation or reuses a stored
// id is skipped. A single change event covers the whole batch, and is sent
// for whatever was stored even when a store failure ends the import early.
func (s *TransactionService) Import(ctx context.Context, userID string, records []core.Record) (res ImportResult, err error) {
	defer func() {
		if err != nil {
			slog.ErrorContext(ctx, "Import stopped",
				"user_id", userID,
				"inserted", res.Inserted,
				"error", err)
		} else {
			slog.InfoContext(ctx, "Transactions imported",
				"user_id", userID,
				"inserted", res.Inserted,
				"skipped", len(res.Skipped))
		}
		if res.Inserted > 0 {
			s.changed(ctx, userID, "", core.OpImported)
		}
	}()
	for i, r := range records {
		r.UserID = userID
		if r.ID == "" {
			r.ID = s.newID()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now().UTC()
		}
		t, perr := r.Parse()
		if perr != nil {
			res.Skipped = append(res.Skipped, core.SkippedRecord{Index: i, ID: r.ID, Err: perr})
			continue
		}
		if ierr := s.store.InsertRecord(ctx, t.ToRecord()); ierr != nil {
			if errors.Is(ierr, core.ErrDuplicateID) {
				res.Skipped = append(res.Skipped, core.SkippedRecord{Index: i, ID: r.ID, Err: ierr})
				continue
			}
			return res, fmt.Errorf("import record %d: %w", i, ierr)
		}
		res.Inserted++
	}
	return res, nil
}

func (s *TransactionService) changed(ctx context.Context, userID, id string, op core.ChangeOp) {
	for _, n := range s.notifiers {
		n.Notify(userID)
	}
	if s.publisher == nil {
		return
	}
	// publish failures never fail the write; the store is the source of truth
	if err := s.publisher.PublishChange(ctx, amqp.NewChangeEvent(userID, id, op)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change event",
			"user_id", userID,
			"id", id,
			"op", op,
			"error", err)
	}
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidType,
		core.ErrEmptyTitle,
		core.ErrTitleTooLong,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
