package google

import (
	"strings"
	"time"

	"fintrack/internal/aggregate"
)

const maxTitleLength = 100

// sheetTitle builds "<prefix> <user>" with characters Sheets rejects in tab
// names replaced.
func sheetTitle(prefix, userID string) string {
	title := strings.TrimSpace(prefix + " " + userID)
	title = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '*', '?', '/', '\\', ':':
			return '_'
		}
		return r
	}, title)
	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return title
}

// quoteSheet quotes a tab name for A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// reportRows lays out a report as summary, category and monthly blocks
// separated by blank rows. Amounts are numbers so the sheet can chart them.
func reportRows(r aggregate.Report) [][]any {
	rows := [][]any{
		{"User", r.UserID},
		{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Transactions", r.Count},
		{},
		{"Summary", "Amount"},
		{"Income", r.Summary.Income.Float()},
		{"Expense", r.Summary.Expense.Float()},
		{"Balance", r.Summary.Balance.Float()},
		{"Savings rate %", r.Summary.SavingsRate},
		{},
		{"Category", "Total"},
	}
	for _, c := range r.Categories {
		rows = append(rows, []any{c.Category, c.Total.Float()})
	}
	rows = append(rows, []any{}, []any{"Month", "Income", "Expense", "Balance"})
	for _, m := range r.Months {
		rows = append(rows, []any{m.Month.String(), m.Income.Float(), m.Expense.Float(), m.Income.Sub(m.Expense).Float()})
	}
	return rows
}
