package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"budgetmaster/internal/core"
	"budgetmaster/internal/log"
	"budgetmaster/internal/mail"
	"budgetmaster/internal/middleware/ratelimit"
	"budgetmaster/internal/middleware/security"
	"budgetmaster/internal/middleware/trace"
	"budgetmaster/internal/services"
)

type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (services.Session, error)
	Login(ctx context.Context, email, password string) (services.Session, error)
}

type ExpenseService interface {
	CreateExpense(ctx context.Context, e core.Expense) (int64, error)
	ListExpenses(ctx context.Context, userID int64) ([]core.ExpenseView, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
}

type BudgetService interface {
	SetLimits(ctx context.Context, userID int64, savingsTarget core.Money, limits []services.LimitInput) error
	Status(ctx context.Context, userID int64) ([]core.BudgetStatus, error)
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type EmailDiagnostics interface {
	Describe() mail.Diagnostics
}

type TokenParser interface {
	ParseToken(token string) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the capabilities the API is built on. Email, MailConfig and
// Tokens may be nil when the matching feature is disabled.
type Deps struct {
	Accounts   AccountService
	Expenses   ExpenseService
	Budgets    BudgetService
	Email      EmailSender
	MailConfig EmailDiagnostics
	Tokens     TokenParser
	Health     Pinger
	Logger     *log.Logger
}

type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	DebugEndpoints     bool
	AuthRequired       bool
	TrustedProxies     []string
}

type Server struct {
	http.Server
	deps     Deps
	opts     Options
	logger   *log.Logger
	validate *validator.Validate

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Every route is served at the root and again under /api.
func NewServer(opts Options, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	limiterCfg := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		deps:     deps,
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentHTTP),
		validate: newValidator(),
		limiter:  ratelimit.NewLimiter(limiterCfg),
		detector: detector,
		tracer:   trace.NewMiddleware(log.NewStructuredLogger(logger), detector.ClientIP),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestIDMiddleware(trace.RequestID))
	r.Use(s.tracer.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(detector.Middleware(logger))
	r.Use(cors.Handler(corsOptions(opts.CORSAllowedOrigins)))
	r.Use(s.limiter.Middleware(limiterCfg.Methods, detector.ClientIP, s.onRateLimit))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	s.routes(r)
	r.Route("/api", s.routes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(r chi.Router) {
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Get("/categories", s.handleCategories)

	r.Group(func(r chi.Router) {
		if s.opts.AuthRequired {
			r.Use(s.requireToken)
		}
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/{user_id}", s.handleListExpenses)
		r.Post("/budget-limits", s.handleSetLimits)
		r.Get("/budget-status/{user_id}", s.handleBudgetStatus)
	})

	if s.opts.DebugEndpoints {
		r.Post("/test-email", s.handleTestEmail)
		r.Get("/debug-email-config", s.handleDebugEmailConfig)
	}
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}
}

// RunMaintenance evicts idle rate-limit entries until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	Requests   trace.Metrics
	RateLimit  ratelimit.Metrics
	Suspicious int64
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Requests:   s.tracer.GetMetrics(),
		RateLimit:  s.limiter.GetMetrics(),
		Suspicious: s.detector.SuspiciousCount(),
	}
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
