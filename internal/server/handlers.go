package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/odds"
	"parlay-ev-bot/internal/policies"
)

// EvaluateRequest prices a hand-picked parlay. Policy overrides the stored
// policy for Sport when set.
type EvaluateRequest struct {
	Sport     string                `json:"sport"`
	Bookmaker string                `json:"bookmaker,omitempty"`
	Mode      string                `json:"mode,omitempty"`
	Legs      []analysis.Leg        `json:"legs"`
	Policy    *analysis.BoostPolicy `json:"policy,omitempty"`
}

// SearchRequest searches a sport's board, or Legs when given.
type SearchRequest struct {
	Sport          string                `json:"sport"`
	Bookmaker      string                `json:"bookmaker,omitempty"`
	Mode           string                `json:"mode,omitempty"`
	Size           int                   `json:"size,omitempty"`
	MaxEvaluations int                   `json:"max_evaluations,omitempty"`
	Refine         *bool                 `json:"refine,omitempty"`
	Legs           []analysis.Leg        `json:"legs,omitempty"`
	Policy         *analysis.BoostPolicy `json:"policy,omitempty"`
}

// NoResult is returned when a search has nothing to recommend. It is
// distinct from a recommendation with negative EV.
type NoResult struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// EventsResponse lists a sport's events and the legs built from them.
type EventsResponse struct {
	Sport  string         `json:"sport"`
	Events []feed.Event   `json:"events"`
	Legs   []analysis.Leg `json:"legs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "parlayd",
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sport := r.URL.Query().Get("sport")
	if sport == "" {
		respondError(w, http.StatusBadRequest, "sport is required")
		return
	}

	events, err := s.deps.Source.Events(r.Context(), sport)
	if err != nil {
		s.log.Warn("feed unavailable, returning empty board", zap.String("sport", sport), zap.Error(err))
		events = nil
	}
	if events == nil {
		events = []feed.Event{}
	}
	respondJSON(w, http.StatusOK, EventsResponse{
		Sport:  sport,
		Events: events,
		Legs:   feed.BuildLegs(events),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	mode, ok := fairvalue.ParseMode(req.Mode)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	policy, status, err := s.policyFor(req.Sport, req.Bookmaker, req.Policy)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	res, err := s.deps.Evaluator.Evaluate(r.Context(), manualLegs(req.Legs), policy, mode)
	if err != nil {
		respondError(w, evalStatus(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	mode, ok := fairvalue.ParseMode(req.Mode)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", req.Mode))
		return
	}
	policy, status, err := s.policyFor(req.Sport, req.Bookmaker, req.Policy)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	pool := manualLegs(req.Legs)
	if len(pool) == 0 {
		pool = feed.LoadLegs(r.Context(), s.deps.Source, req.Sport, s.log)
	}

	opts := analysis.SearchOptions{
		Size:           req.Size,
		Policy:         policy,
		Mode:           mode,
		Refine:         s.deps.Refine,
		MaxEvaluations: s.deps.MaxEvaluations,
	}
	if opts.Size <= 0 {
		opts.Size = s.deps.ParlaySize
	}
	if req.MaxEvaluations > 0 {
		opts.MaxEvaluations = req.MaxEvaluations
	}
	if req.Refine != nil {
		opts.Refine = *req.Refine
	}

	res, err := s.deps.Searcher.Search(r.Context(), pool, opts)
	switch {
	case errors.Is(err, analysis.ErrInsufficientLegs), errors.Is(err, analysis.ErrNoEligibleCombination):
		respondJSON(w, http.StatusOK, NoResult{Status: "no_result", Reason: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if res.Best == nil {
			respondError(w, http.StatusServiceUnavailable, "search cancelled")
			return
		}
		// Best so far, marked by res.Phase == cancelled.
		respondJSON(w, http.StatusOK, res)
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
	default:
		respondJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		respondJSON(w, http.StatusOK, policies.Defaults(s.deps.Bookmaker))
		return
	}
	list, err := s.deps.Store.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []policies.Stored{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	sport := chi.URLParam(r, "sport")
	bookmaker := r.URL.Query().Get("bookmaker")
	policy, status, err := s.policyFor(sport, bookmaker, nil)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		respondError(w, http.StatusNotImplemented, "policy store not configured")
		return
	}

	var p analysis.BoostPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	p.Sport = chi.URLParam(r, "sport")
	if p.Bookmaker == "" {
		p.Bookmaker = s.deps.Bookmaker
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Store.Upsert(p); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("policy updated",
		zap.String("bookmaker", p.Bookmaker),
		zap.String("sport", p.Sport),
		zap.Float64("boost_percent", p.BoostPercent),
	)
	respondJSON(w, http.StatusOK, p)
}

// policyFor resolves the policy for a request, returning an HTTP status to
// use on error.
func (s *Server) policyFor(sport, bookmaker string, override *analysis.BoostPolicy) (analysis.BoostPolicy, int, error) {
	if bookmaker == "" {
		bookmaker = s.deps.Bookmaker
	}
	if override != nil {
		p := *override
		if p.Sport == "" {
			p.Sport = sport
		}
		if p.Bookmaker == "" {
			p.Bookmaker = bookmaker
		}
		if err := p.Validate(); err != nil {
			return analysis.BoostPolicy{}, http.StatusBadRequest, err
		}
		return p, http.StatusOK, nil
	}
	if sport == "" {
		return analysis.BoostPolicy{}, http.StatusBadRequest, errors.New("sport is required")
	}

	var getter policies.Getter
	if s.deps.Store != nil {
		getter = s.deps.Store
	}
	p, err := policies.Lookup(getter, bookmaker, sport)
	if errors.Is(err, policies.ErrNoPolicy) {
		return analysis.BoostPolicy{}, http.StatusNotFound, err
	}
	if err != nil {
		return analysis.BoostPolicy{}, http.StatusInternalServerError, err
	}
	return p, http.StatusOK, nil
}

// manualLegs gives each leg without an event id its own event, so
// hand-entered legs are never treated as correlated.
func manualLegs(legs []analysis.Leg) []analysis.Leg {
	out := make([]analysis.Leg, len(legs))
	for i, l := range legs {
		if l.EventID == "" {
			l.EventID = fmt.Sprintf("manual-%d", i+1)
		}
		out[i] = l
	}
	return out
}

func evalStatus(err error) int {
	var legErr *analysis.InvalidLegError
	switch {
	case errors.Is(err, analysis.ErrNoLegs), errors.Is(err, odds.ErrInvalidOdds), errors.As(err, &legErr):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
