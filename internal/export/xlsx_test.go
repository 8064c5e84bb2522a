package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: "3", Title: "Groceries", Amount: core.Money{Cents: 3000}, Type: core.Expense, Category: "Food & Dining", Date: core.NewDate(2025, 3, 4)},
		{ID: "2", Title: "Rent", Amount: core.Money{Cents: 40000}, Type: core.Expense, Category: "Rent", Date: core.NewDate(2025, 3, 1), Note: "March"},
		{ID: "1", Title: "Salary", Amount: core.Money{Cents: 100000}, Type: core.Income, Category: "Salary", Date: core.NewDate(2025, 2, 28)},
	}
}

func TestWriteProducesAllSheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), core.DefaultCriteria()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTransactions, SheetSummary, SheetCategories, SheetMonthly}, f.GetSheetList())

	rows, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Date", "Title", "Type", "Category", "Amount", "Note"}, rows[0])
	assert.Equal(t, "2025-03-04", rows[1][0])
	assert.Equal(t, "Rent", rows[2][1])
	assert.Equal(t, "March", rows[2][5])

	cats, err := f.GetRows(SheetCategories)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Rent", cats[1][0])
	assert.Equal(t, "Food & Dining", cats[2][0])

	months, err := f.GetRows(SheetMonthly)
	require.NoError(t, err)
	require.Len(t, months, 3)
	assert.Equal(t, "2025-02", months[1][0])
	assert.Equal(t, "2025-03", months[2][0])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, "Savings rate %", summary[3][0])
	assert.Equal(t, "57", summary[3][1])
}

func TestWorkbookFiltersTransactionsOnly(t *testing.T) {
	c := core.DefaultCriteria()
	c.Type = core.TypeIncome

	f, err := Workbook(sample(), c)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Salary", rows[1][1])

	// totals still cover every transaction
	cats, err := f.GetRows(SheetCategories)
	require.NoError(t, err)
	assert.Len(t, cats, 3)
}

func TestWorkbookEmpty(t *testing.T) {
	f, err := Workbook(nil, core.DefaultCriteria())
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetTransactions)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
