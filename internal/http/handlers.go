package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady checks the store and reports request and security counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	store := "ok"
	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			store = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"checks": map[string]any{
			"store":        store,
			"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients(), "rejected": s.limiter.Hits()},
			"security":     s.detector.Metrics(),
			"requests":     s.tracer.Metrics(),
		},
	})
}

type categoriesResponse struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Income:  core.CategoriesFor(core.Income),
		Expense: core.CategoriesFor(core.Expense),
	})
}
