package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()
	t, err := s.tx.Get(ctx, userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r, log.OpCreate)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()
	t, err := s.tx.Create(ctx, userID(r), in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/transactions/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r, log.OpUpdate)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()
	t, err := s.tx.Update(ctx, userID(r), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()
	if err := s.tx.Delete(ctx, userID(r), r.PathValue("id")); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readInput(w http.ResponseWriter, r *http.Request, op string) (core.TransactionInput, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, op, err)
		return core.TransactionInput{}, false
	}
	return p.TransactionInput(), true
}
