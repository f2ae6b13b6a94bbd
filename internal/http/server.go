package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"motoinvest/internal/log"
	"motoinvest/internal/middleware/ratelimit"
	"motoinvest/internal/middleware/security"
	"motoinvest/internal/middleware/trace"
	"motoinvest/internal/services"
)

// ReadinessChecker reports whether the backing store is reachable.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// Config holds what the server needs besides the application.
type Config struct {
	Addr               string
	JWTSecret          string
	JWTIssuer          string
	RateLimitPerMinute int
	ContactURL         string
	Readiness          ReadinessChecker
	// AllowedOrigins restricts websocket upgrades; empty allows any origin.
	AllowedOrigins []string
}

type Server struct {
	http.Server
	app        *services.App
	auth       *Authenticator
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	readiness  ReadinessChecker
	upgrader   websocket.Upgrader
	ws         wsTimings
	contactURL string
	logger     *log.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, app *services.App, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	rl := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = cfg.RateLimitPerMinute
	}
	rl.Cost = requestCost
	detector := security.NewDetector(logger)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		app:        app,
		auth:       NewAuthenticator(cfg.JWTSecret, cfg.JWTIssuer, logger),
		limiter:    ratelimit.NewLimiter(rl),
		detector:   detector,
		tracer:     trace.NewMiddleware(logger, detector.ExtractClientIP),
		readiness:  cfg.Readiness,
		ws:         defaultWSTimings,
		contactURL: cfg.ContactURL,
		logger:     logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /api/session", s.handleSignIn)
	api.HandleFunc("GET /api/session", s.handleSession)
	api.HandleFunc("DELETE /api/session", s.handleSignOut)
	api.HandleFunc("POST /api/session/resync", s.handleResync)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/calendar", s.handleCalendar)
	api.HandleFunc("POST /api/days/close", s.handleCloseDay)
	api.HandleFunc("GET /api/bills", s.handleListBills)
	api.HandleFunc("POST /api/bills", s.handleAddBill)
	api.HandleFunc("POST /api/bills/{id}/toggle", s.handleToggleBill)
	api.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	api.HandleFunc("POST /api/onboarding", s.handleOnboarding)
	api.HandleFunc("PATCH /api/profile", s.handleUpdateProfile)
	api.HandleFunc("GET /api/messages", s.handleMessages)
	api.HandleFunc("POST /api/chat", s.handleChat)
	api.HandleFunc("GET /api/preferences", s.handleGetPreferences)
	api.HandleFunc("PUT /api/preferences", s.handleSetPreferences)
	api.HandleFunc("GET /ws/chat", s.handleChatSocket)

	protected := s.auth.Middleware(s.limiter.Middleware(s.rateKey, onRateLimit)(api))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", protected)
	mux.Handle("/ws/", protected)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = headers.Middleware(detector.Middleware(s.tracer.Middleware(mux)))
	return s
}

// rateKey limits per user, falling back to the client IP.
func (s *Server) rateKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok {
		return "user:" + id.UserID
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

// mentorTurnCost is what a request that reaches the mentor spends from the
// per-minute budget.
const mentorTurnCost = 5

func requestCost(r *http.Request) int {
	if r.Method != http.MethodPost {
		return 1
	}
	switch r.URL.Path {
	case "/api/chat", "/api/days/close", "/api/onboarding":
		return mentorTurnCost
	}
	return 1
}

func onRateLimit(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Shutdown gracefully shuts down the server and its background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.readiness.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
