package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/mathutil"
	"parlay-ev-bot/internal/metrics"
)

var (
	// ErrInsufficientLegs means the pool holds fewer valid legs than the
	// parlay size.
	ErrInsufficientLegs = errors.New("not enough legs for a parlay")
	// ErrNoEligibleCombination means every combination failed the policy.
	ErrNoEligibleCombination = errors.New("no combination satisfies the boost policy")
)

const (
	DefaultParlaySize     = 3
	DefaultMaxEvaluations = 100000
)

// Phase is the state of a search.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScanning  Phase = "scanning"
	PhaseRefining  Phase = "refining"
	PhaseDone      Phase = "done"
	PhaseCancelled Phase = "cancelled"
)

// SearchOptions configures one search.
type SearchOptions struct {
	Size   int // legs per parlay, DefaultParlaySize when 0
	Policy BoostPolicy

	// Mode prices each scanned combination. Local is the usual choice.
	Mode fairvalue.Mode
	// Refine re-prices the winner once in external mode.
	Refine bool

	// MaxEvaluations caps scored combinations. Combinations are visited in
	// lexicographic index order, so a capped search compares the first
	// MaxEvaluations eligible combinations of the pool as given.
	MaxEvaluations int
}

// SearchResult holds the best combination and scan diagnostics.
type SearchResult struct {
	RunID string  `json:"run_id"`
	Best  *Result `json:"best,omitempty"`
	// Scanned is the best as priced during the scan, before refinement.
	Scanned *Result `json:"scanned,omitempty"`

	Phase               Phase `json:"phase"`
	PoolSize            int   `json:"pool_size"`
	InvalidLegs         int   `json:"invalid_legs"`
	DuplicateLegs       int   `json:"duplicate_legs"`
	TotalPossible       int64 `json:"total_possible"`
	CombinationsChecked int   `json:"combinations_checked"`
	Filtered            int   `json:"filtered"`
	Capped              bool  `json:"capped"`
	Refined             bool  `json:"refined"`
}

// Searcher finds the highest EV parlay in a pool of legs.
type Searcher struct {
	eval *Evaluator
	log  *zap.Logger
}

// NewSearcher creates a searcher around an evaluator.
func NewSearcher(eval *Evaluator, log *zap.Logger) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{eval: eval, log: log}
}

// Search enumerates every Size-leg combination of pool, filters by the
// policy, scores survivors and keeps the first combination with the highest
// EV. On cancellation the best combination found so far is returned with
// the context error.
func (s *Searcher) Search(ctx context.Context, pool []Leg, opts SearchOptions) (SearchResult, error) {
	start := time.Now()
	res := SearchResult{RunID: uuid.NewString(), Phase: PhaseIdle}

	size := opts.Size
	if size <= 0 {
		size = DefaultParlaySize
	}
	limit := opts.MaxEvaluations
	if limit <= 0 {
		limit = DefaultMaxEvaluations
	}
	mode := opts.Mode
	if mode == "" {
		mode = fairvalue.ModeLocal
	}

	legs := s.preparePool(pool, &res)
	res.PoolSize = len(legs)
	res.TotalPossible = mathutil.Binomial(len(legs), size)

	log := s.log.With(
		zap.String("run_id", res.RunID),
		zap.String("bookmaker", opts.Policy.Bookmaker),
		zap.String("sport", opts.Policy.Sport),
	)

	if len(legs) < size {
		res.Phase = PhaseDone
		observeSearch("insufficient", start)
		return res, fmt.Errorf("%w: have %d, need %d", ErrInsufficientLegs, len(legs), size)
	}
	if opts.Policy.MinLegs > size {
		res.Phase = PhaseDone
		observeSearch("no_result", start)
		return res, fmt.Errorf("%w: policy needs %d legs, parlay size is %d", ErrNoEligibleCombination, opts.Policy.MinLegs, size)
	}

	res.Phase = PhaseScanning
	var best *Result
	idx := mathutil.FirstCombination(size)
	combo := make([]Leg, size)

	for {
		if err := ctx.Err(); err != nil {
			res.Phase = PhaseCancelled
			res.Best = best
			res.Scanned = best
			observeSearch("cancelled", start)
			log.Info("search cancelled", zap.Int("checked", res.CombinationsChecked))
			return res, err
		}
		if res.CombinationsChecked >= limit {
			res.Capped = true
			break
		}

		for i, j := range idx {
			combo[i] = legs[j]
		}

		if pv := opts.Policy.Check(combo); pv != nil {
			res.Filtered++
			metrics.CombinationsFiltered.Inc()
		} else {
			candidate := append([]Leg(nil), combo...)
			r, err := s.eval.evaluate(ctx, candidate, opts.Policy, mode, nil)
			if err != nil {
				log.Warn("skipping combination", zap.Error(err))
			} else {
				res.CombinationsChecked++
				metrics.CombinationsChecked.Inc()
				if best == nil || r.EVPercent > best.EVPercent {
					best = &r
				}
			}
			if res.CombinationsChecked%1000 == 0 && res.CombinationsChecked > 0 {
				log.Debug("scan progress", zap.Int("checked", res.CombinationsChecked))
			}
		}

		if !mathutil.NextCombination(idx, len(legs)) {
			break
		}
	}

	res.Scanned = best
	res.Best = best
	if best == nil {
		res.Phase = PhaseDone
		observeSearch("no_result", start)
		return res, ErrNoEligibleCombination
	}

	if opts.Refine && mode != fairvalue.ModeExternal {
		res.Phase = PhaseRefining
		refined, err := s.eval.evaluate(ctx, best.Legs, opts.Policy, fairvalue.ModeExternal, nil)
		if err != nil {
			log.Warn("refinement failed, keeping scan result", zap.Error(err))
		} else {
			res.Best = &refined
			res.Refined = true
		}
	}

	res.Phase = PhaseDone
	observeSearch("ok", start)
	log.Info("search complete",
		zap.Int("pool", res.PoolSize),
		zap.Int("checked", res.CombinationsChecked),
		zap.Int("filtered", res.Filtered),
		zap.Bool("capped", res.Capped),
		zap.Float64("ev_percent", res.Best.EVPercent),
	)
	return res, nil
}

// preparePool drops legs with invalid prices and repeated keys, keeping the
// first occurrence.
func (s *Searcher) preparePool(pool []Leg, res *SearchResult) []Leg {
	legs := make([]Leg, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, l := range pool {
		if err := l.Validate(); err != nil {
			res.InvalidLegs++
			s.log.Debug("dropping leg", zap.Error(err))
			continue
		}
		if seen[l.Key()] {
			res.DuplicateLegs++
			continue
		}
		seen[l.Key()] = true
		legs = append(legs, l)
	}
	return legs
}

func observeSearch(outcome string, start time.Time) {
	metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
