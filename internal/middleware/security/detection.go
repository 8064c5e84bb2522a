// Package security holds the HTTP hardening middleware: client address
// resolution behind proxies, probe detection and response headers.
package security

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
)

var (
	defaultTrustedProxies = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

	probePatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents  = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab"}
	blockedMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

const maxURLLength = 2048

// Detector resolves client addresses and flags requests that look like
// scans.
type Detector struct {
	trusted    []netip.Prefix
	suspicious atomic.Int64
	blocked    atomic.Int64
}

// NewDetector trusts forwarding headers from loopback and private networks
// plus any extra CIDRs given.
func NewDetector(extraTrusted ...string) (*Detector, error) {
	d := &Detector{}
	for _, cidr := range append(slices.Clone(defaultTrustedProxies), extraTrusted...) {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy CIDR %s: %w", cidr, err)
		}
		d.trusted = append(d.trusted, p.Masked())
	}
	return d, nil
}

// ClientIP returns the peer address, or the first forwarded address when
// the peer is a trusted proxy.
func (d *Detector) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.isTrusted(peer.Unmap()) {
		return host
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if a, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return a.String()
		}
	}
	if a, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return a.String()
	}
	return host
}

func (d *Detector) isTrusted(a netip.Addr) bool {
	return slices.ContainsFunc(d.trusted, func(p netip.Prefix) bool { return p.Contains(a) })
}

// Suspicious reports whether r matches a known probe pattern.
func (d *Detector) Suspicious(r *http.Request) bool {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	if q, err := url.QueryUnescape(query); err == nil {
		query = q
	}
	ua := strings.ToLower(r.Header.Get("User-Agent"))
	switch {
	case slices.ContainsFunc(probePatterns, func(p string) bool {
		return strings.Contains(path, p) || strings.Contains(query, p)
	}):
	case slices.ContainsFunc(scannerAgents, func(a string) bool { return strings.Contains(ua, a) }):
	case slices.Contains(blockedMethods, r.Method):
	case len(r.URL.String()) > maxURLLength:
	case strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5:
	default:
		return false
	}
	return true
}

// Middleware logs suspicious requests and rejects diagnostic methods.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !d.Suspicious(r) {
			next.ServeHTTP(w, r)
			return
		}
		d.suspicious.Add(1)
		slog.WarnContext(r.Context(), "Suspicious request",
			"client_ip", d.ClientIP(r),
			"method", r.Method,
			"path", r.URL.Path,
			"user_agent", r.Header.Get("User-Agent"))
		if slices.Contains(blockedMethods, r.Method) {
			d.blocked.Add(1)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics counts flagged and blocked requests.
type Metrics struct {
	SuspiciousRequests int64 `json:"suspiciousRequests"`
	BlockedRequests    int64 `json:"blockedRequests"`
}

func (d *Detector) Metrics() Metrics {
	return Metrics{SuspiciousRequests: d.suspicious.Load(), BlockedRequests: d.blocked.Load()}
}
