package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"finansmart/internal/auth"
	"finansmart/internal/cache"
	"finansmart/internal/core"
	"finansmart/internal/log"
	"finansmart/internal/middleware/ratelimit"
	"finansmart/internal/middleware/security"
	"finansmart/internal/middleware/trace"
	"finansmart/internal/services"
	"finansmart/internal/session"
	"finansmart/internal/sharing"
)

// AuthService is the identity side of the API.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (auth.Identity, error)
	Login(ctx context.Context, email, password string) (auth.Identity, error)
}

// AdviceProvider produces financial advice for a transaction sequence.
type AdviceProvider interface {
	Advise(txs []core.Transaction) (string, error)
	InFlight() bool
}

// Server is the JSON API over the ledger core.
type Server struct {
	http.Server

	auth     AuthService
	ledger   *services.LedgerService
	sharing  *sharing.Resolver
	sessions *session.Manager
	advisor  AdviceProvider
	logger   *log.Logger

	seriesOpts  core.TimeSeriesOptions
	adviceCache *cache.TTLCache[string]
	janitor     *cache.Janitor
	rateLimiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// Config carries the server's wiring.
type Config struct {
	Addr       string
	Auth       AuthService
	Ledger     *services.LedgerService
	Sharing    *sharing.Resolver
	Sessions   *session.Manager
	Advisor    AdviceProvider
	Logger     *log.Logger
	SeriesOpts core.TimeSeriesOptions
}

// NewServer wires routes and middleware, returning a ready-to-run
// server.
func NewServer(cfg Config) *Server {
	s := &Server{
		auth:        cfg.Auth,
		ledger:      cfg.Ledger,
		sharing:     cfg.Sharing,
		sessions:    cfg.Sessions,
		advisor:     cfg.Advisor,
		logger:      cfg.Logger.WithComponent(log.ComponentHTTP),
		seriesOpts:  cfg.SeriesOpts,
		adviceCache: cache.NewTTLCache[string](100, 5*time.Minute),
		janitor:     cache.NewJanitor(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.janitor.Register(s.adviceCache)
	s.janitor.Start(10 * time.Minute)

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.withSession(s.handleLogout))

	mux.HandleFunc("GET /api/categories", s.withSession(s.handleCategories))
	mux.HandleFunc("GET /api/transactions", s.withSession(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withSession(s.handleCreateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withSession(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/reset", s.withSession(s.handleResetTransactions))

	mux.HandleFunc("GET /api/dashboard/summary", s.withSession(s.handleSummary))
	mux.HandleFunc("GET /api/dashboard/categories", s.withSession(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /api/dashboard/timeseries", s.withSession(s.handleTimeSeries))

	mux.HandleFunc("GET /api/share", s.withSession(s.handleListGuests))
	mux.HandleFunc("POST /api/share", s.withSession(s.handleGrantShare))
	mux.HandleFunc("DELETE /api/share/{guest}", s.withSession(s.handleRevokeShare))

	mux.HandleFunc("POST /api/advice", s.withSession(s.handleAdvice))
	mux.HandleFunc("GET /api/advice/status", s.withSession(s.handleAdviceStatus))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP, s.logger)
	limited := s.rateLimiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})

	return tracer.Middleware(headers.Middleware(limited(mux)))
}

// Shutdown stops background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
