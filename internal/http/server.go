// Package http serves the JSON API: dashboard views, transaction writes,
// the XLSX export and a server-sent event stream of dashboards.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// requestTimeout bounds every store-backed handler except the stream.
const requestTimeout = 7 * time.Second

// Deps are the collaborators the server needs.
type Deps struct {
	Transactions *services.TransactionService
	Dashboards   *services.DashboardService
	Verifier     *auth.Verifier
	Logger       *log.Logger

	// Ready is checked by /readyz; nil means always ready.
	Ready func(context.Context) error

	RateLimitPerMinute int
	// StreamHeartbeat is the SSE keep-alive interval; zero means 25s.
	StreamHeartbeat time.Duration
}

type Server struct {
	http.Server
	tx        *services.TransactionService
	dash      *services.DashboardService
	ready     func(context.Context) error
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	heartbeat time.Duration
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, d Deps) (*Server, error) {
	if d.Transactions == nil || d.Dashboards == nil || d.Verifier == nil {
		return nil, errors.New("http server needs transactions, dashboards and a verifier")
	}
	detector, err := security.NewDetector()
	if err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	heartbeat := d.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	s := &Server{
		tx:        d.Transactions,
		dash:      d.Dashboards,
		ready:     d.Ready,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ClientIP),
		heartbeat: heartbeat,
		started:   time.Now(),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/charts/categories", s.handleCategoryChart)
	api.HandleFunc("GET /api/charts/monthly", s.handleMonthlyChart)
	api.HandleFunc("GET /api/charts/daily", s.handleDailyChart)
	api.HandleFunc("GET /api/dashboard", s.handleDashboard)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("GET /api/transactions/export.xlsx", s.handleExport)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("GET /api/stream", s.handleStream)

	writes := s.limiter.Middleware(s.rateKey, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
	})
	api.Handle("POST /api/transactions", writes(http.HandlerFunc(s.handleCreateTransaction)))
	api.Handle("PUT /api/transactions/{id}", writes(http.HandlerFunc(s.handleUpdateTransaction)))
	api.Handle("DELETE /api/transactions/{id}", writes(http.HandlerFunc(s.handleDeleteTransaction)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", d.Verifier.Middleware(api))

	var h http.Handler = mux
	h = s.tracer.Handler(h)
	h = log.Middleware(logger.WithComponent(log.ComponentHTTP), nil)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

// rateKey limits per user once authenticated, else per client address.
func (s *Server) rateKey(r *http.Request) string {
	if u, ok := auth.UserFrom(r.Context()); ok {
		return "user:" + u
	}
	return "ip:" + s.detector.ClientIP(r)
}

// Shutdown stops the limiter and then the HTTP server. Only the first
// call does anything.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// userID is set by the auth middleware for every /api route.
func userID(r *http.Request) string {
	u, _ := auth.UserFrom(r.Context())
	return u
}

func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}
