package log

import (
	"net/url"
	"slices"
	"strings"
)

const redacted = "REDACTED"

// credentialParams never have their values logged.
var credentialParams = []string{"access_token", "token"}

// RedactQuery masks credential values in a raw query string, keeping the
// order and encoding of every other parameter.
func RedactQuery(raw string) string {
	if raw == "" {
		return raw
	}
	parts := strings.Split(raw, "&")
	for i, p := range parts {
		k, _, _ := strings.Cut(p, "=")
		key := k
		if u, err := url.QueryUnescape(k); err == nil {
			key = u
		}
		if slices.Contains(credentialParams, strings.ToLower(key)) {
			parts[i] = k + "=" + redacted
		}
	}
	return strings.Join(parts, "&")
}
