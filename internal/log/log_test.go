package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentHTTP, Output: &buf})
	l.Info("hello", FieldUserID, "u1")

	out := buf.String()
	if strings.Count(out, "component=http") != 1 {
		t.Fatalf("component should appear once: %s", out)
	}
	if !strings.Contains(out, "user_id=u1") {
		t.Fatalf("missing attribute: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentWorker).Debug("tick")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("WithComponent did not tag: %s", buf.String())
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Output: &buf}).With(FieldRequestID, "req_9")
	l.WithComponent(ComponentHTTP).Info("served")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("component should appear once: %s", out)
	}
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=req_9") {
		t.Fatalf("want http component and kept request id: %s", out)
	}
	if l.WithComponent(ComponentHTTP).With(FieldUserID, "u1").Component() != ComponentHTTP {
		t.Fatal("With should keep the component")
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered: %s", buf.String())
	}
}

func TestMiddlewareAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf})

	h := Middleware(base, func(*http.Request) string { return "req_1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Logger == nil {
		t.Fatal("expected default logger")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(Config{Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/summary?x=1", nil)

	LogHTTPEnd(ctx, r, http.StatusInternalServerError, 12, "10.0.0.1")
	out := buf.String()
	for _, want := range []string{"level=ERROR", "status_code=500", "success=false", `query="x=1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}

	buf.Reset()
	LogError(ctx, "boom", errors.New("db down"), OpList, NewFields().WithUser("u1"))
	if !strings.Contains(buf.String(), `error="db down"`) || !strings.Contains(buf.String(), "user_id=u1") {
		t.Fatalf("LogError output: %s", buf.String())
	}
}

func TestLogHTTPEndRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	ctx := NewContext(context.Background(), New(Config{Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/api/stream?search=rent&access_token=eyJhbGciOiJIUzI1NiJ9.e30.sig", nil)

	LogHTTPEnd(ctx, r, http.StatusOK, 3, "")
	out := buf.String()
	if strings.Contains(out, "eyJhbGciOiJIUzI1NiJ9") {
		t.Fatalf("token leaked into log: %s", out)
	}
	if !strings.Contains(out, `query="search=rent&access_token=REDACTED"`) {
		t.Fatalf("query not redacted as expected: %s", out)
	}
}

func TestRedactQuery(t *testing.T) {
	tests := map[string]string{
		"":                          "",
		"x=1":                       "x=1",
		"access_token=abc":          "access_token=REDACTED",
		"TOKEN=abc&b=2":             "TOKEN=REDACTED&b=2",
		"a=1&access%5Ftoken=abc":    "a=1&access%5Ftoken=REDACTED",
		"access_token":              "access_token=REDACTED",
		"search=access_token%3Dabc": "search=access_token%3Dabc",
	}
	for in, want := range tests {
		if got := RedactQuery(in); got != want {
			t.Errorf("RedactQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
