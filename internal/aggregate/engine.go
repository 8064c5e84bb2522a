// Package aggregate derives read-only views from a transaction collection:
// summary totals, category breakdowns, monthly and daily series, and the
// filtered and sorted list.
//
// Every function is a pure function of its arguments. Inputs are never
// modified and results never alias them. A transaction with an amount
// outside (0, core.MaxAmountCents] or an unknown type is left out of every
// total; one with a zero date is also left out of the monthly and daily
// series. Title and category are never checked.
package aggregate

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"fintrack/internal/core"
)

const (
	// DefaultMonths is the monthly series window.
	DefaultMonths = 6
	// DefaultDays is the daily series window.
	DefaultDays = 15
)

type (
	Summary struct {
		Income      core.Money `json:"income"`
		Expense     core.Money `json:"expense"`
		Balance     core.Money `json:"balance"`
		SavingsRate int        `json:"savingsRate"`
	}

	CategoryTotal struct {
		Category string     `json:"category"`
		Total    core.Money `json:"total"`
	}

	// MonthKey identifies a calendar month independent of locale.
	MonthKey struct {
		Year  int
		Month int // 1-12
	}

	MonthBucket struct {
		Month   MonthKey   `json:"month"`
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
	}

	DayBucket struct {
		Date   core.Date  `json:"date"`
		Amount core.Money `json:"amount"`
	}
)

func countable(t core.Transaction) bool {
	return t.Amount.Validate() == nil && t.Type.Valid()
}

func dated(t core.Transaction) bool {
	return countable(t) && t.Date.Validate() == nil
}

func monthOf(d core.Date) MonthKey {
	return MonthKey{Year: d.Year(), Month: int(d.Month())}
}

func (k MonthKey) Compare(o MonthKey) int {
	if c := cmp.Compare(k.Year, o.Year); c != 0 {
		return c
	}
	return cmp.Compare(k.Month, o.Month)
}

// String renders the key as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(b []byte) error {
	t, err := time.Parse("2006-01", string(b))
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", b, err)
	}
	*k = MonthKey{Year: t.Year(), Month: int(t.Month())}
	return nil
}

// Summarize totals income and expense. The savings rate is the balance as
// a whole percentage of income, rounded half up, and 0 without income.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, t := range txs {
		if !countable(t) {
			continue
		}
		switch t.Type {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	s.SavingsRate = savingsRate(s.Income.Cents, s.Balance.Cents)
	return s
}

func savingsRate(income, balance int64) int {
	if income <= 0 {
		return 0
	}
	return int(math.Floor(float64(balance)*100/float64(income) + 0.5))
}

// CategoryBreakdown sums expenses per category, largest first. Equal
// totals are ordered by category name.
func CategoryBreakdown(txs []core.Transaction) []CategoryTotal {
	idx := make(map[string]int)
	out := make([]CategoryTotal, 0)
	for _, t := range txs {
		if t.Type != core.Expense || !countable(t) {
			continue
		}
		i, ok := idx[t.Category]
		if !ok {
			i = len(out)
			idx[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category})
		}
		out[i].Total = out[i].Total.Add(t.Amount)
	}
	slices.SortFunc(out, func(a, b CategoryTotal) int {
		if c := cmp.Compare(b.Total.Cents, a.Total.Cents); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// MonthlySeries buckets income and expense by calendar month, oldest
// first, keeping the most recent lastN months present in the data.
// lastN <= 0 means DefaultMonths.
func MonthlySeries(txs []core.Transaction, lastN int) []MonthBucket {
	if lastN <= 0 {
		lastN = DefaultMonths
	}
	return lastBuckets(monthBuckets(txs), lastN)
}

// AllMonths is MonthlySeries without a window.
func AllMonths(txs []core.Transaction) []MonthBucket {
	return monthBuckets(txs)
}

func monthBuckets(txs []core.Transaction) []MonthBucket {
	idx := make(map[MonthKey]int)
	out := make([]MonthBucket, 0)
	for _, t := range txs {
		if !dated(t) {
			continue
		}
		key := monthOf(t.Date)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, MonthBucket{Month: key})
		}
		if t.Type == core.Income {
			out[i].Income = out[i].Income.Add(t.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(t.Amount)
		}
	}
	slices.SortFunc(out, func(a, b MonthBucket) int { return a.Month.Compare(b.Month) })
	return out
}

// DailySeries sums expenses per calendar day present in the data, oldest
// first, keeping the most recent lastN days. Days without expenses are not
// filled in. lastN <= 0 means DefaultDays.
func DailySeries(txs []core.Transaction, lastN int) []DayBucket {
	if lastN <= 0 {
		lastN = DefaultDays
	}
	idx := make(map[int64]int)
	out := make([]DayBucket, 0)
	for _, t := range txs {
		if t.Type != core.Expense || !dated(t) {
			continue
		}
		key := t.Date.Unix()
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, DayBucket{Date: t.Date})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	slices.SortFunc(out, func(a, b DayBucket) int { return a.Date.Compare(b.Date) })
	return lastBuckets(out, lastN)
}

// lastBuckets keeps the final n elements in a fresh slice.
func lastBuckets[T any](in []T, n int) []T {
	if len(in) <= n {
		return in
	}
	return slices.Clone(in[len(in)-n:])
}
