package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is a transaction exactly as a store holds it or a file carries it.
// Amount, Type and Date are unvalidated text; Ingest turns records into
// Transactions.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Title     string    `json:"title"`
	Amount    string    `json:"amount"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Date      string    `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts amount as either a JSON number or a string, since
// document exports carry both.
func (r *Record) UnmarshalJSON(b []byte) error {
	type alias Record
	var raw struct {
		alias
		Amount    any    `json:"amount"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = Record(raw.alias)
	r.Amount = stringValue(raw.Amount)
	r.CreatedAt = time.Time{}
	if raw.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw.CreatedAt); err == nil {
			r.CreatedAt = ts
		}
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// ToRecord renders a transaction in store form.
func (t Transaction) ToRecord() Record {
	return Record{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		Amount:    t.Amount.String(),
		Type:      t.Type.String(),
		Category:  t.Category,
		Date:      t.Date.String(),
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
	}
}

// Parse validates a single record.
func (r Record) Parse() (Transaction, error) {
	cents, err := ParseDecimalToCents(r.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("amount %q: %w", r.Amount, err)
	}
	typ, err := ParseType(r.Type)
	if err != nil {
		return Transaction{}, fmt.Errorf("type %q: %w", r.Type, err)
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("date %q: %w", r.Date, err)
	}
	t := Transaction{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     strings.TrimSpace(r.Title),
		Amount:    Money{Cents: cents},
		Type:      typ,
		Category:  strings.TrimSpace(r.Category),
		Date:      date,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// SkippedRecord describes a record Ingest left out.
type SkippedRecord struct {
	Index int
	ID    string
	Err   error
}

func (s SkippedRecord) Error() string {
	return fmt.Sprintf("record %d (%s): %v", s.Index, s.ID, s.Err)
}

// IngestResult holds the valid transactions in input order and the
// records that failed validation.
type IngestResult struct {
	Transactions []Transaction
	Skipped      []SkippedRecord
}

// Ingest validates records one by one. A malformed record is skipped and
// reported; it never aborts the rest.
func Ingest(records []Record) IngestResult {
	res := IngestResult{Transactions: make([]Transaction, 0, len(records))}
	for i, r := range records {
		t, err := r.Parse()
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Index: i, ID: r.ID, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res
}
