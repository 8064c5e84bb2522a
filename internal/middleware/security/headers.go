package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig holds security headers configuration
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig locks responses down for a JSON API: nothing may be
// framed, embedded or executed from them.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
	}
}

// Headers returns middleware applying c to every response.
func Headers(c HeadersConfig) func(http.Handler) http.Handler {
	hsts := ""
	if c.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", c.HSTSMaxAge)
		if c.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}
	static := map[string]string{
		"Content-Security-Policy":      c.CSP,
		"X-Frame-Options":              c.XFrameOptions,
		"X-Content-Type-Options":       c.XContentTypeOptions,
		"Referrer-Policy":              c.ReferrerPolicy,
		"Permissions-Policy":           c.PermissionsPolicy,
		"Cross-Origin-Opener-Policy":   c.CrossOriginOpener,
		"Cross-Origin-Resource-Policy": c.CrossOriginResource,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range static {
				if v != "" {
					h.Set(k, v)
				}
			}
			// only meaningful over TLS
			if r.TLS != nil && hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
