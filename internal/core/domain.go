package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const maxTitleLength = 200

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a validated income or expense record. The engine only
	// ever sees values of this type.
	Transaction struct {
		ID        string          `json:"id"`
		UserID    string          `json:"-"`
		Title     string          `json:"title"`
		Amount    Money           `json:"amount"`
		Type      TransactionType `json:"type"`
		Category  string          `json:"category"`
		Date      Date            `json:"date"`
		Note      string          `json:"note,omitempty"`
		CreatedAt time.Time       `json:"createdAt"`
	}

	// TransactionInput carries user-supplied fields for create and update.
	// Amount and Date are text as typed by the user.
	TransactionInput struct {
		Title    string
		Amount   string
		Type     string
		Category string
		Date     string
		Note     string
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyTitle    = errors.New("empty title")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory = errors.New("empty category")
	ErrNotFound      = errors.New("transaction not found")
	ErrDuplicateID   = errors.New("transaction id already exists")
)

// ParseType maps a wire value to a TransactionType.
func ParseType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, or an RFC 3339 timestamp whose calendar
// date is kept and time of day dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, ErrInvalidDate
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Compare orders dates chronologically.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return t.Date.Validate()
}

// Build validates the input and converts it to a Transaction without id,
// owner or creation time.
func (in TransactionInput) Build() (Transaction, error) {
	cents, err := ParseDecimalToCents(in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	typ, err := ParseType(in.Type)
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return Transaction{}, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return Transaction{}, ErrEmptyCategory
	}
	t := Transaction{
		Title:    strings.TrimSpace(in.Title),
		Amount:   Money{Cents: cents},
		Type:     typ,
		Category: strings.TrimSpace(in.Category),
		Date:     date,
		Note:     strings.TrimSpace(in.Note),
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// MarshalJSON renders the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
