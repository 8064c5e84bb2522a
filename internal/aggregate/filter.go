package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"fintrack/internal/core"
)

// FilterAndSort applies search, type and category filters in that order,
// then sorts by criteria.SortBy. The sort is stable: transactions with
// equal keys keep their input order in both directions. The result is a
// new slice.
func FilterAndSort(txs []core.Transaction, c core.Criteria) []core.Transaction {
	c = c.Normalize()
	q := strings.ToLower(c.Search)

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if q != "" && !matches(t, q) {
			continue
		}
		if c.Type != core.TypeAll && string(t.Type) != string(c.Type) {
			continue
		}
		if c.Category != core.CategoryAll && t.Category != c.Category {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, comparator(c.SortBy))
	return out
}

func matches(t core.Transaction, q string) bool {
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Category), q) ||
		(t.Note != "" && strings.Contains(strings.ToLower(t.Note), q))
}

func comparator(sb core.SortBy) func(a, b core.Transaction) int {
	var asc func(a, b core.Transaction) int
	switch sb.Field {
	case core.SortByAmount:
		asc = func(a, b core.Transaction) int { return cmp.Compare(a.Amount.Cents, b.Amount.Cents) }
	default:
		asc = func(a, b core.Transaction) int { return a.Date.Compare(b.Date) }
	}
	if sb.Direction == core.SortDesc {
		return func(a, b core.Transaction) int { return asc(b, a) }
	}
	return asc
}
