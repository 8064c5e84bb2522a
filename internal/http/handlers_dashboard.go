package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

const (
	maxMonthsWindow = 60
	maxDaysWindow   = 366
)

// collection loads the caller's ingested transactions under the request
// timeout, writing the error response itself on failure.
func (s *Server) collection(w http.ResponseWriter, r *http.Request, op string) (core.IngestResult, bool) {
	ctx, cancel := withTimeout(r)
	defer cancel()
	res, err := s.dash.Transactions(ctx, userID(r))
	if err != nil {
		writeError(w, r, op, fmt.Errorf("load transactions: %w", err))
		return core.IngestResult{}, false
	}
	return res, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.collection(w, r, log.OpRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.Summarize(res.Transactions))
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.collection(w, r, log.OpRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.CategoryBreakdown(res.Transactions))
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	n, err := parseWindow(r.URL.Query(), "months", maxMonthsWindow)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	res, ok := s.collection(w, r, log.OpRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.MonthlySeries(res.Transactions, n))
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	n, err := parseWindow(r.URL.Query(), "days", maxDaysWindow)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	res, ok := s.collection(w, r, log.OpRead)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, aggregate.DailySeries(res.Transactions, n))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()
	d, err := s.dash.Dashboard(ctx, userID(r), parseCriteria(r.URL.Query()))
	if err != nil {
		writeError(w, r, log.OpRead, fmt.Errorf("build dashboard: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
	Filtered     bool               `json:"filtered"`
	Skipped      int                `json:"skipped"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	c := parseCriteria(r.URL.Query())
	res, ok := s.collection(w, r, log.OpList)
	if !ok {
		return
	}
	list := aggregate.FilterAndSort(res.Transactions, c)
	writeJSON(w, http.StatusOK, transactionList{
		Transactions: list,
		Count:        len(list),
		Filtered:     !c.IsDefault(),
		Skipped:      len(res.Skipped),
	})
}

// handleExport renders into memory first so a failure still gets a JSON
// error instead of a truncated download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c := parseCriteria(r.URL.Query())
	res, ok := s.collection(w, r, log.OpExport)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, res.Transactions, c); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="transactions_%s.xlsx"`, time.Now().UTC().Format("20060102")))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
