// Package seed builds a demo collection: a few months of plausible income
// and expenses, plus one malformed record so skipped-record handling is
// visible on a fresh dashboard.
package seed

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DefaultMonths is how much history Records generates when asked for none.
const DefaultMonths = 6

type entry struct {
	day      int
	title    string
	amount   string
	typ      core.TransactionType
	category string
	note     string
}

// every month, relative to its first day
var monthly = []entry{
	{1, "Salary", "3200.00", core.Income, "Salary", ""},
	{2, "Rent", "1100.00", core.Expense, "Rent", "monthly rent"},
	{5, "Electricity", "64.30", core.Expense, "Bills & Utilities", ""},
	{6, "Groceries", "86.45", core.Expense, "Food & Dining", ""},
	{9, "Metro pass", "39.00", core.Expense, "Transport", ""},
	{13, "Groceries", "92.10", core.Expense, "Food & Dining", ""},
	{16, "Cinema", "24.00", core.Expense, "Entertainment", ""},
	{20, "Groceries", "71.85", core.Expense, "Food & Dining", ""},
	{24, "Pharmacy", "18.20", core.Expense, "Health", ""},
	{27, "Internet", "29.99", core.Expense, "Bills & Utilities", ""},
}

// every other month
var alternating = []entry{
	{11, "Logo design", "450.00", core.Income, "Freelance", "invoice paid"},
	{18, "Running shoes", "119.90", core.Expense, "Shopping", ""},
	{22, "Weekend trip", "310.00", core.Expense, "Travel", ""},
}

// Records returns the demo collection for userID covering the months
// ending with now's month, oldest first. Days past now are left out, so
// the current month is partial. The last record has an amount that does
// not parse.
func Records(userID string, now time.Time, months int) []core.Record {
	if months <= 0 {
		months = DefaultMonths
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var out []core.Record
	add := func(month time.Time, e entry) {
		d := month.AddDate(0, 0, e.day-1)
		if d.After(now) {
			return
		}
		out = append(out, core.Record{
			ID:        fmt.Sprintf("seed-%s-%02d-%s", d.Format("200601"), e.day, e.typ),
			UserID:    userID,
			Title:     e.title,
			Amount:    e.amount,
			Type:      string(e.typ),
			Category:  e.category,
			Date:      d.Format(time.DateOnly),
			Note:      e.note,
			CreatedAt: d.Add(12 * time.Hour),
		})
	}

	for i := months - 1; i >= 0; i-- {
		month := first.AddDate(0, -i, 0)
		for _, e := range monthly {
			add(month, e)
		}
		if i%2 == 0 {
			for _, e := range alternating {
				add(month, e)
			}
		}
	}

	out = append(out, core.Record{
		ID:        "seed-malformed",
		UserID:    userID,
		Title:     "Imported row",
		Amount:    "twelve",
		Type:      string(core.Expense),
		Category:  "Other",
		Date:      first.Format(time.DateOnly),
		CreatedAt: first,
	})
	return out
}
