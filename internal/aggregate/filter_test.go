package aggregate

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

// mixedSet is ten transactions ordered newest first, as stores list them,
// with no two sharing a date.
func mixedSet() []core.Transaction {
	txs := []core.Transaction{
		tx("10", 50000, core.Expense, "Transport", core.NewDate(2025, 3, 12)),
		tx("9", 7500000, core.Income, "Salary", core.NewDate(2025, 3, 10)),
		tx("8", 280000, core.Expense, "Food & Dining", core.NewDate(2025, 3, 9)),
		tx("7", 1800000, core.Expense, "Rent", core.NewDate(2025, 3, 1)),
		tx("6", 850000, core.Expense, "Travel", core.NewDate(2025, 2, 14)),
		tx("5", 800000, core.Income, "Freelance", core.NewDate(2025, 2, 12)),
		tx("4", 99900, core.Expense, "Bills & Utilities", core.NewDate(2025, 2, 8)),
		tx("3", 320000, core.Expense, "Food & Dining", core.NewDate(2025, 2, 5)),
		tx("2", 1500000, core.Income, "Freelance", core.NewDate(2025, 1, 18)),
		tx("1", 1800000, core.Expense, "Rent", core.NewDate(2025, 1, 1)),
	}
	txs[1].Title = "March Salary"
	txs[2].Note = "Family dinner at Barbeque Nation"
	txs[3].Title = "March Rent"
	return txs
}

func ids(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func TestFilterAndSortScenarioB(t *testing.T) {
	txs := mixedSet()
	got := FilterAndSort(txs, core.NewCriteria("", "expense", "All", ""))

	var want []string
	for _, t := range txs {
		if t.Type == core.Expense {
			want = append(want, t.ID)
		}
	}
	assert.Len(t, got, len(want))
	assert.Equal(t, want, ids(got), "default sort keeps input order for input already newest first")
}

func TestFilterAndSortSearch(t *testing.T) {
	txs := mixedSet()

	// title
	assert.Equal(t, []string{"9"}, ids(FilterAndSort(txs, core.NewCriteria("SALARY", "", "", ""))))
	// note
	assert.Equal(t, []string{"8"}, ids(FilterAndSort(txs, core.NewCriteria("barbeque", "", "", ""))))
	// category
	assert.Equal(t, []string{"8", "3"}, ids(FilterAndSort(txs, core.NewCriteria("dining", "", "", ""))))
	// empty search matches all
	assert.Len(t, FilterAndSort(txs, core.NewCriteria("", "", "", "")), len(txs))
	// no match
	assert.Empty(t, FilterAndSort(txs, core.NewCriteria("zzz", "", "", "")))
}

func TestFilterAndSortSearchKeepsSpaces(t *testing.T) {
	txs := mixedSet()
	assert.Equal(t, []string{"7", "1"}, ids(FilterAndSort(txs, core.NewCriteria("rent", "", "", ""))))
	assert.Equal(t, []string{"7"}, ids(FilterAndSort(txs, core.NewCriteria(" rent", "", "", ""))),
		"a leading space only matches mid-title words")
}

func TestFilterAndSortCategoryAndType(t *testing.T) {
	txs := mixedSet()
	assert.Equal(t, []string{"7", "1"}, ids(FilterAndSort(txs, core.NewCriteria("", "", "Rent", ""))))
	assert.Empty(t, FilterAndSort(txs, core.NewCriteria("", "income", "Rent", "")))
	assert.Equal(t, []string{"9", "5", "2"}, ids(FilterAndSort(txs, core.NewCriteria("", "income", "", ""))))
}

func TestFilterAndSortByAmount(t *testing.T) {
	txs := mixedSet()
	asc := FilterAndSort(txs, core.NewCriteria("", "", "", "amount-asc"))
	assert.True(t, slices.IsSortedFunc(asc, func(a, b core.Transaction) int {
		return int(a.Amount.Cents - b.Amount.Cents)
	}))

	desc := FilterAndSort(txs, core.NewCriteria("", "", "", "amount-desc"))
	assert.Equal(t, "9", desc[0].ID)
	// 7 and 1 share 18000.00 and keep their input order
	assert.Equal(t, []string{"7", "1"}, ids(desc[1:3]))
	assert.Equal(t, []string{"7", "1"}, ids(asc[len(asc)-3:len(asc)-1]))
}

func TestFilterAndSortDateReverse(t *testing.T) {
	txs := mixedSet()
	desc := ids(FilterAndSort(txs, core.NewCriteria("", "", "", "date-desc")))
	asc := ids(FilterAndSort(txs, core.NewCriteria("", "", "", "date-asc")))
	slices.Reverse(asc)
	assert.Equal(t, desc, asc)
}

func TestFilterAndSortDateTiesKeepInputOrder(t *testing.T) {
	day := core.NewDate(2025, 1, 1)
	txs := []core.Transaction{
		tx("a", 100, core.Expense, "Food", day),
		tx("b", 200, core.Expense, "Food", day),
		tx("c", 300, core.Expense, "Food", core.NewDate(2025, 1, 2)),
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(FilterAndSort(txs, core.NewCriteria("", "", "", "date-desc"))))
	assert.Equal(t, []string{"a", "b", "c"}, ids(FilterAndSort(txs, core.NewCriteria("", "", "", "date-asc"))))
}

func TestFilterAndSortIdempotent(t *testing.T) {
	txs := mixedSet()
	for _, c := range []core.Criteria{
		core.NewCriteria("", "", "", ""),
		core.NewCriteria("food", "expense", "", "amount-asc"),
		core.NewCriteria("", "income", "Freelance", "date-asc"),
	} {
		once := FilterAndSort(txs, c)
		twice := FilterAndSort(once, c)
		assert.Equal(t, once, twice, c.Key())
	}
}

func TestFilterAndSortReturnsNewSlice(t *testing.T) {
	txs := mixedSet()
	before := ids(txs)
	got := FilterAndSort(txs, core.NewCriteria("", "", "", "amount-asc"))
	require.NotEmpty(t, got)
	got[0].Title = "changed"
	assert.Equal(t, before, ids(txs))
	assert.Equal(t, "10", got[0].ID)
	assert.Equal(t, "t-10", txs[0].Title)

	empty := FilterAndSort(nil, core.DefaultCriteria())
	require.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestFilterAndSortZeroCriteria(t *testing.T) {
	txs := mixedSet()
	assert.Equal(t, ids(txs), ids(FilterAndSort(txs, core.Criteria{})))
}

func TestBuildDashboard(t *testing.T) {
	txs := mixedSet()
	d := BuildDashboard(txs, core.NewCriteria("", "expense", "", ""), Options{Months: 2, Days: 3})
	assert.True(t, d.Filtered)
	assert.Equal(t, 7, d.Count)
	assert.Len(t, d.Monthly, 2)
	assert.Len(t, d.Daily, 3)
	assert.Equal(t, "Rent", d.Categories[0].Category)
	assert.Equal(t, Summarize(txs), d.Summary)
}
