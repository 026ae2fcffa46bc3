package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"cashcast/internal/forecast"
	"cashcast/internal/log"
	"cashcast/internal/middleware/ratelimit"
	"cashcast/internal/middleware/trace"
	"cashcast/internal/rates"
	"cashcast/internal/services"
)

// KeyRateSource provides the reference key rate.
type KeyRateSource interface {
	KeyRate(ctx context.Context) (rates.KeyRate, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to its collaborators.
type Options struct {
	Engine      *forecast.Engine
	Predictions *services.PredictionService
	Rates       KeyRateSource
	Store       Pinger

	// JWTSecret enables bearer authentication when set.
	JWTSecret string
	// DefaultUserID is used when authentication is disabled and no
	// X-User-ID header is sent.
	DefaultUserID int64

	PredictionCacheTTL time.Duration
	// RequestsPerMinute limits POST requests per client IP.
	RequestsPerMinute int
	Logger            *log.Logger
}

// Server wraps http.Server with the cashcast API routes.
type Server struct {
	*http.Server

	engine      *forecast.Engine
	predictions *services.PredictionService
	rates       KeyRateSource
	store       Pinger
	cacheTTL    time.Duration

	auth    *Authenticator
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	metrics *securityMetrics

	logger       *log.Logger
	events       *log.StructuredLogger
	shutdownOnce sync.Once
}

// NewServer builds the router and middleware chain. Timeouts are left to the
// caller.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.DefaultUserID <= 0 {
		opts.DefaultUserID = 1
	}
	if opts.PredictionCacheTTL <= 0 {
		opts.PredictionCacheTTL = 24 * time.Hour
	}

	s := &Server{
		engine:      opts.Engine,
		predictions: opts.Predictions,
		rates:       opts.Rates,
		store:       opts.Store,
		cacheTTL:    opts.PredictionCacheTTL,
		auth:        NewAuthenticator(opts.JWTSecret, opts.DefaultUserID),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		tracer:      trace.NewMiddleware(logger, extractClientIP),
		metrics:     &securityMetrics{},
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
	}

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)
	api.HandleFunc("/predictions", s.handlePredictAll).Methods(http.MethodGet)
	api.HandleFunc("/predictions/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/predictions/{categoryID:[0-9]+}", s.handlePredict).Methods(http.MethodGet)
	api.HandleFunc("/categories/variability", s.handleVariability).Methods(http.MethodGet)
	api.HandleFunc("/cashflow", s.handleCashFlow).Methods(http.MethodGet)
	api.HandleFunc("/scenarios/simulate", s.handleScenario).Methods(http.MethodPost)
	api.HandleFunc("/affordability", s.handleAffordability).Methods(http.MethodPost)
	api.HandleFunc("/inflation/simulate", s.handleInflation).Methods(http.MethodPost)
	api.HandleFunc("/rates/key-rate", s.handleKeyRate).Methods(http.MethodGet)

	limited := s.limiter.Middleware(extractClientIP, isPost, s.onRateLimited)(r)
	return s.tracer.Middleware(s.withSecurityHeaders(limited))
}

func isPost(r *http.Request) bool {
	return r.Method == http.MethodPost
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.metrics.rateLimitHits, 1)
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.events.LogError(ctx, "Readiness check failed", err, log.OpRead, nil)
			ServiceUnavailableError("store unavailable").Write(w)
			return
		}
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}
