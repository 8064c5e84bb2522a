package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// RequestBodyParser reads a JSON or form-encoded body once and serves
// string fields from whichever was sent.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

// NewRequestBodyParser reads and parses the body of r, capped at 1 MiB.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = fmt.Errorf("%w: read body: %w", errBadRequest, p.err)
		return p
	}
	p.err = p.parse()
	return p
}

func (p *RequestBodyParser) parse() error {
	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			return fmt.Errorf("%w: invalid JSON: %w", errBadRequest, err)
		}
		return nil
	}
	if trimmed[0] == '[' {
		return fmt.Errorf("%w: expected a JSON object", errBadRequest)
	}
	form, err := url.ParseQuery(trimmed)
	if err != nil {
		return fmt.Errorf("%w: invalid form body: %w", errBadRequest, err)
	}
	p.formData = form
	return nil
}

// Err returns the read or parse error, if any.
func (p *RequestBodyParser) Err() error {
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// TransactionInput collects the editable transaction fields.
func (p *RequestBodyParser) TransactionInput() core.TransactionInput {
	return core.TransactionInput{
		Title:    p.Get("title"),
		Amount:   p.Get("amount"),
		Type:     p.Get("type"),
		Category: p.Get("category"),
		Date:     p.Get("date"),
		Note:     p.Get("note"),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseCriteria reads search, type, category and sortBy from the query.
func parseCriteria(q url.Values) core.Criteria {
	return core.NewCriteria(
		stripControl(q.Get("search")),
		q.Get("type"),
		sanitizeInput(q.Get("category")),
		q.Get("sortBy"),
	)
}

// parseWindow reads an optional positive integer no larger than limit.
// Absent means 0, which the engine treats as its default window.
func parseWindow(q url.Values, key string, limit int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > limit {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d", errBadRequest, key, limit)
	}
	return n, nil
}
