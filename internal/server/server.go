package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/policies"
)

// PolicyStore is the policy storage the API reads and writes. *policies.DB
// satisfies it.
type PolicyStore interface {
	policies.Getter
	List() ([]policies.Stored, error)
	Upsert(p analysis.BoostPolicy) error
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// Deps are the server's collaborators. Store, Gatherer and Health are
// optional.
type Deps struct {
	Evaluator *analysis.Evaluator
	Searcher  *analysis.Searcher
	Source    feed.Source
	Store     PolicyStore
	Gatherer  prometheus.Gatherer
	Health    HealthFunc
	Log       *zap.Logger

	Bookmaker      string // default bookmaker for policy lookups
	ParlaySize     int
	MaxEvaluations int
	Refine         bool // re-price search winners externally by default
	AllowedOrigins []string
}

// Server serves parlay evaluation, search and policy management over HTTP.
type Server struct {
	deps Deps
	log  *zap.Logger
}

// New creates a server.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	if deps.ParlaySize <= 0 {
		deps.ParlaySize = analysis.DefaultParlaySize
	}
	return &Server{deps: deps, log: log}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events", s.handleEvents)
		r.Post("/parlays/evaluate", s.handleEvaluate)
		r.Post("/parlays/search", s.handleSearch)

		r.Get("/policies", s.handleListPolicies)
		r.Get("/policies/{sport}", s.handleGetPolicy)
		r.Put("/policies/{sport}", s.handlePutPolicy)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
