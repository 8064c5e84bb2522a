package aggregate

import (
	"time"

	"fintrack/internal/core"
)

// Options sets the series windows. Zero values mean the defaults.
type Options struct {
	Months int
	Days   int
}

// Dashboard bundles every view the dashboard page renders. Totals and
// series cover the whole collection; Transactions is the filtered list.
type Dashboard struct {
	Summary      Summary            `json:"summary"`
	Categories   []CategoryTotal    `json:"categories"`
	Monthly      []MonthBucket      `json:"monthly"`
	Daily        []DayBucket        `json:"daily"`
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Filtered     bool               `json:"filtered"`
	Skipped      int                `json:"skipped"`
}

// BuildDashboard computes every view for one snapshot. Skipped is left
// for the caller, which knows how many records ingestion dropped.
func BuildDashboard(txs []core.Transaction, c core.Criteria, opts Options) Dashboard {
	list := FilterAndSort(txs, c)
	return Dashboard{
		Summary:      Summarize(txs),
		Categories:   CategoryBreakdown(txs),
		Monthly:      MonthlySeries(txs, opts.Months),
		Daily:        DailySeries(txs, opts.Days),
		Transactions: list,
		Count:        len(list),
		Filtered:     !c.IsDefault(),
	}
}

// Report is the per-user rollup written to external report sinks.
type Report struct {
	UserID      string          `json:"userId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Count       int             `json:"count"`
	Summary     Summary         `json:"summary"`
	Categories  []CategoryTotal `json:"categories"`
	Months      []MonthBucket   `json:"months"`
}

// BuildReport rolls up a user's full history, every month included.
func BuildReport(userID string, txs []core.Transaction, generatedAt time.Time) Report {
	return Report{
		UserID:      userID,
		GeneratedAt: generatedAt,
		Count:       len(txs),
		Summary:     Summarize(txs),
		Categories:  CategoryBreakdown(txs),
		Months:      AllMonths(txs),
	}
}
