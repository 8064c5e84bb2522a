package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code. Validation messages are safe to
// show; anything unexpected is logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, op, nil)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity, validationMessage(err)
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict, "transaction already exists"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// validationMessage unwraps to the core sentinel so wrapping context never
// leaks to clients.
func validationMessage(err error) string {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidDate,
		core.ErrInvalidType,
		core.ErrEmptyTitle,
		core.ErrTitleTooLong,
		core.ErrEmptyCategory,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}
