package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/log"
)

func TestHandlerAssignsAndEchoesID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })
	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("generated id = %q", seen)
	}
	if rec.Header().Get(Header) != seen {
		t.Fatalf("response id %q != context id %q", rec.Header().Get(Header), seen)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := m.Metrics(); got.TotalRequests != 1 || got.InFlight != 0 {
		t.Fatalf("metrics = %+v", got)
	}
}

func TestHandlerKeepsValidIncomingID(t *testing.T) {
	m := NewMiddleware(nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for in, keep := range map[string]bool{
		"abc-123_DEF":            true,
		"bad id with spaces":     false,
		strings.Repeat("x", 100): false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(Header, in)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get(Header) == in; got != keep {
			t.Errorf("id %q kept=%v, want %v", in, got, keep)
		}
	}
}

func TestHandlerLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	base := log.New(log.Config{Output: &buf})
	m := NewMiddleware(nil)
	h := log.Middleware(base, nil)(m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusInternalServerError)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tea", nil))

	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "request_id=req_") {
		t.Fatalf("unexpected log: %s", out)
	}
}

func TestResponseWriterFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	if err := http.NewResponseController(rw).Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if !rec.Flushed {
		t.Fatal("underlying recorder not flushed")
	}
}
