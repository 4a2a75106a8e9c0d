package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"parlay-ev-bot/internal/correlation"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/metrics"
	"parlay-ev-bot/internal/odds"
)

// ErrNoLegs is returned when a parlay has nothing to price.
var ErrNoLegs = errors.New("parlay has no legs")

// FairPricer resolves the fair combined price of a set of sharp leg prices.
// *fairvalue.Resolver satisfies it.
type FairPricer interface {
	Resolve(ctx context.Context, legs []fairvalue.LegPrice, mode fairvalue.Mode) (fairvalue.Price, error)
}

// Config holds analysis configuration
type Config struct {
	Profiles      correlation.Profiles // correlation factor tables by name
	KellyFraction float64              // Fraction of Kelly to use (e.g., 0.25 = quarter Kelly)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Profiles:      correlation.DefaultProfiles(),
		KellyFraction: DefaultKellyFraction,
	}
}

// CorrelationNote warns that a group of same-event legs had its fair price
// shrunk.
type CorrelationNote struct {
	EventID          string            `json:"event_id"`
	Event            string            `json:"event,omitempty"`
	Markets          []odds.MarketType `json:"markets"`
	Factor           float64           `json:"factor"`
	ReductionPercent float64           `json:"reduction_percent"`
}

func (n CorrelationNote) String() string {
	names := make([]string, len(n.Markets))
	for i, m := range n.Markets {
		names[i] = string(m)
	}
	label := n.Event
	if label == "" {
		label = n.EventID
	}
	return fmt.Sprintf("%s: correlated %s, fair value reduced %.1f%%", label, strings.Join(names, " + "), n.ReductionPercent)
}

// LegEdge compares one leg's boosted-book price with the sharp price.
type LegEdge struct {
	Key            string  `json:"key"`
	Selection      string  `json:"selection"`
	OfferedDecimal float64 `json:"offered_decimal"`
	FairDecimal    float64 `json:"fair_decimal"`
	EdgePercent    float64 `json:"edge_percent"`
}

// Result is the verdict for one parlay candidate.
type Result struct {
	Legs  []Leg     `json:"legs"`
	Edges []LegEdge `json:"edges"`

	OfferedDecimal  float64 `json:"offered_decimal"`
	OfferedAmerican int     `json:"offered_american"`

	FairDecimal  float64          `json:"fair_decimal"` // before correlation
	FairAmerican int              `json:"fair_american"`
	FairSource   fairvalue.Source `json:"fair_source"`

	CorrelationAdjustment float64           `json:"correlation_adjustment"`
	CorrelationNotes      []CorrelationNote `json:"correlation_notes,omitempty"`
	AdjustedFairDecimal   float64           `json:"adjusted_fair_decimal"`
	AdjustedFairAmerican  int               `json:"adjusted_fair_american"` // 0 when not above evens

	BoostPercent    float64 `json:"boost_percent"`
	BoostApplied    bool    `json:"boost_applied"`
	PolicyViolation string  `json:"policy_violation,omitempty"`
	BoostedDecimal  float64 `json:"boosted_decimal"`
	BoostedAmerican int     `json:"boosted_american"`

	EVPercent  float64 `json:"ev_percent"`
	PositiveEV bool    `json:"positive_ev"`
	KellyStake float64 `json:"kelly_stake"`

	Mode fairvalue.Mode `json:"mode"`
}

// Evaluator scores parlay candidates against a boost policy.
type Evaluator struct {
	pricer FairPricer
	cfg    Config
	log    *zap.Logger
}

// NewEvaluator creates an evaluator. Missing profiles fall back to the
// built-in tables.
func NewEvaluator(pricer FairPricer, cfg Config, log *zap.Logger) *Evaluator {
	if cfg.Profiles == nil {
		cfg.Profiles = correlation.DefaultProfiles()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{pricer: pricer, cfg: cfg, log: log}
}

// Evaluate scores legs under policy. A candidate that does not satisfy the
// policy is scored without the boost and the reason is recorded. Invalid
// prices fail with *InvalidLegError.
func (e *Evaluator) Evaluate(ctx context.Context, legs []Leg, policy BoostPolicy, mode fairvalue.Mode) (Result, error) {
	if len(legs) == 0 {
		return Result{}, ErrNoLegs
	}
	for _, l := range legs {
		if err := l.Validate(); err != nil {
			return Result{}, err
		}
	}
	return e.evaluate(ctx, legs, policy, mode, policy.Check(legs))
}

// evaluate assumes legs are validated.
func (e *Evaluator) evaluate(ctx context.Context, legs []Leg, policy BoostPolicy, mode fairvalue.Mode, pv *PolicyViolation) (Result, error) {
	metrics.Evaluations.WithLabelValues(string(mode)).Inc()

	res := Result{
		Legs:                  legs,
		Edges:                 make([]LegEdge, 0, len(legs)),
		CorrelationAdjustment: 1.0,
		BoostPercent:          policy.BoostPercent,
		BoostApplied:          pv == nil,
		Mode:                  mode,
	}
	if pv != nil {
		res.PolicyViolation = pv.Reason
	}

	res.OfferedDecimal = 1.0
	for _, l := range legs {
		offered, err := odds.AmericanToDecimal(l.OfferedOdds)
		if err != nil {
			return Result{}, &InvalidLegError{Leg: l, Field: "offered_odds", Err: err}
		}
		sharp, err := odds.AmericanToDecimal(l.FairOdds)
		if err != nil {
			return Result{}, &InvalidLegError{Leg: l, Field: "fair_odds", Err: err}
		}
		res.OfferedDecimal *= offered
		res.Edges = append(res.Edges, LegEdge{
			Key:            l.Key(),
			Selection:      l.Label(),
			OfferedDecimal: offered,
			FairDecimal:    sharp,
			EdgePercent:    (offered/sharp - 1) * 100,
		})
	}

	fair, err := e.pricer.Resolve(ctx, legPrices(legs), mode)
	if err != nil {
		return Result{}, fmt.Errorf("resolving fair value: %w", err)
	}
	res.FairDecimal = fair.Decimal
	res.FairAmerican = fair.American
	res.FairSource = fair.Source

	table := e.cfg.Profiles.Lookup(policy.CorrelationProfile)
	for _, g := range correlation.GroupByEvent(legs) {
		if !g.Correlated() {
			continue
		}
		types := g.MarketTypes()
		factor := table.Factor(types)
		res.CorrelationAdjustment *= factor
		res.CorrelationNotes = append(res.CorrelationNotes, CorrelationNote{
			EventID:          g.EventID,
			Event:            g.Legs[0].Event,
			Markets:          types,
			Factor:           factor,
			ReductionPercent: (1 - factor) * 100,
		})
	}
	res.AdjustedFairDecimal = res.FairDecimal * res.CorrelationAdjustment

	res.BoostedDecimal = res.OfferedDecimal
	if res.BoostApplied {
		res.BoostedDecimal *= 1 + policy.BoostPercent/100
	}

	res.EVPercent = (res.BoostedDecimal/res.AdjustedFairDecimal - 1) * 100
	res.PositiveEV = res.EVPercent > 0
	res.KellyStake = ParlayKelly(res.AdjustedFairDecimal, res.BoostedDecimal, e.kellyFraction())

	res.OfferedAmerican = americanOrZero(res.OfferedDecimal)
	res.AdjustedFairAmerican = americanOrZero(res.AdjustedFairDecimal)
	res.BoostedAmerican = americanOrZero(res.BoostedDecimal)
	return res, nil
}

func (e *Evaluator) kellyFraction() float64 {
	if e.cfg.KellyFraction <= 0 {
		return DefaultKellyFraction
	}
	return e.cfg.KellyFraction
}

// americanOrZero converts a product of prices. Products at or below evens
// have no American form and report 0.
func americanOrZero(decimal float64) int {
	american, err := odds.DecimalToAmerican(decimal)
	if err != nil {
		return 0
	}
	return american
}
