// Package export renders transaction views as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
)

// Sheet names, in workbook order.
const (
	SheetTransactions = "Transactions"
	SheetSummary      = "Summary"
	SheetCategories   = "Categories"
	SheetMonthly      = "Monthly"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook builds a workbook from a user's transactions. The Transactions
// sheet holds the list filtered and sorted by c; the other sheets cover
// the whole collection. The caller closes the returned file.
func Workbook(txs []core.Transaction, c core.Criteria) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetCategories, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w := sheetWriter{f: f}
	w.transactions(aggregate.FilterAndSort(txs, c))
	w.summary(aggregate.Summarize(txs))
	w.categories(aggregate.CategoryBreakdown(txs))
	w.monthly(aggregate.AllMonths(txs))
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to out.
func Write(out io.Writer, txs []core.Transaction, c core.Criteria) error {
	f, err := Workbook(txs, c)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// sheetWriter keeps the first error so the layout code reads top to bottom.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err == nil {
		err = w.f.SetSheetRow(sheet, cell, &values)
	}
	if err != nil {
		w.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) widths(sheet string, widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err == nil {
			err = w.f.SetColWidth(sheet, col, col, width)
		}
		if err != nil {
			w.err = fmt.Errorf("%s width: %w", sheet, err)
		}
	}
}

func (w *sheetWriter) transactions(txs []core.Transaction) {
	w.row(SheetTransactions, 1, "Date", "Title", "Type", "Category", "Amount", "Note")
	for i, t := range txs {
		w.row(SheetTransactions, i+2, t.Date.String(), t.Title, t.Type.String(), t.Category, t.Amount.Float(), t.Note)
	}
	w.widths(SheetTransactions, 12, 30, 10, 18, 12, 40)
}

func (w *sheetWriter) summary(s aggregate.Summary) {
	w.row(SheetSummary, 1, "Income", s.Income.Float())
	w.row(SheetSummary, 2, "Expense", s.Expense.Float())
	w.row(SheetSummary, 3, "Balance", s.Balance.Float())
	w.row(SheetSummary, 4, "Savings rate %", s.SavingsRate)
	w.widths(SheetSummary, 16, 14)
}

func (w *sheetWriter) categories(cs []aggregate.CategoryTotal) {
	w.row(SheetCategories, 1, "Category", "Total")
	for i, c := range cs {
		w.row(SheetCategories, i+2, c.Category, c.Total.Float())
	}
	w.widths(SheetCategories, 20, 14)
}

func (w *sheetWriter) monthly(ms []aggregate.MonthBucket) {
	w.row(SheetMonthly, 1, "Month", "Income", "Expense", "Balance")
	for i, m := range ms {
		w.row(SheetMonthly, i+2, m.Month.String(), m.Income.Float(), m.Expense.Float(), m.Income.Sub(m.Expense).Float())
	}
	w.widths(SheetMonthly, 10, 14, 14, 14)
}
