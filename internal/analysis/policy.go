package analysis

import (
	"errors"
	"fmt"

	"parlay-ev-bot/internal/correlation"
	"parlay-ev-bot/internal/odds"
)

// BoostPolicy is a book's profit boost terms for one sport.
type BoostPolicy struct {
	Bookmaker    string  `json:"bookmaker" yaml:"bookmaker"`
	Sport        string  `json:"sport" yaml:"sport"`
	BoostPercent float64 `json:"boost_percent" yaml:"boost_percent"`
	MinLegs      int     `json:"min_legs" yaml:"min_legs"`

	// RequireSameEventLegs and ForbidSameEventLegs are mutually exclusive.
	RequireSameEventLegs bool `json:"require_same_event_legs" yaml:"require_same_event_legs"`
	ForbidSameEventLegs  bool `json:"forbid_same_event_legs" yaml:"forbid_same_event_legs"`

	// AllowSingleEvent permits a parlay of more than two legs drawn entirely
	// from one event.
	AllowSingleEvent bool `json:"allow_single_event" yaml:"allow_single_event"`

	// MinOddsThreshold is an American price at least one leg must meet.
	// 0 means no threshold.
	MinOddsThreshold int `json:"min_odds_threshold,omitempty" yaml:"min_odds_threshold"`

	CorrelationProfile string `json:"correlation_profile,omitempty" yaml:"correlation_profile"`
}

// Validate checks the policy terms themselves.
func (p BoostPolicy) Validate() error {
	if p.Bookmaker == "" || p.Sport == "" {
		return errors.New("policy needs bookmaker and sport")
	}
	if p.BoostPercent < 0 {
		return fmt.Errorf("policy %s/%s: boost_percent must be >= 0, got %v", p.Bookmaker, p.Sport, p.BoostPercent)
	}
	if p.MinLegs < 0 {
		return fmt.Errorf("policy %s/%s: min_legs must be >= 0, got %d", p.Bookmaker, p.Sport, p.MinLegs)
	}
	if p.RequireSameEventLegs && p.ForbidSameEventLegs {
		return fmt.Errorf("policy %s/%s: require_same_event_legs and forbid_same_event_legs are exclusive", p.Bookmaker, p.Sport)
	}
	if p.MinOddsThreshold != 0 {
		if err := odds.ValidateAmerican(p.MinOddsThreshold); err != nil {
			return fmt.Errorf("policy %s/%s: min_odds_threshold: %w", p.Bookmaker, p.Sport, err)
		}
	}
	return nil
}

// PolicyViolation explains why a combination does not qualify for the boost.
// It is a filter reason, not a failure.
type PolicyViolation struct {
	Reason string
}

func (v *PolicyViolation) Error() string {
	return "policy violation: " + v.Reason
}

func violation(format string, args ...any) *PolicyViolation {
	return &PolicyViolation{Reason: fmt.Sprintf(format, args...)}
}

// Check returns nil when legs qualify for the boost. Leg prices are assumed
// valid.
func (p BoostPolicy) Check(legs []Leg) *PolicyViolation {
	if len(legs) < p.MinLegs {
		return violation("needs at least %d legs, got %d", p.MinLegs, len(legs))
	}

	seen := make(map[string]bool, len(legs))
	for _, l := range legs {
		if seen[l.Key()] {
			return violation("duplicate leg %s", l.Key())
		}
		seen[l.Key()] = true
	}

	groups := correlation.GroupByEvent(legs)
	largest := 0
	for _, g := range groups {
		largest = max(largest, len(g.Legs))
	}

	if p.RequireSameEventLegs && largest < 2 {
		return violation("needs at least two legs from one event")
	}
	if p.ForbidSameEventLegs && largest > 1 {
		return violation("legs from the same event are not allowed")
	}
	if !p.AllowSingleEvent && len(legs) > 2 && len(groups) == 1 {
		return violation("all %d legs are from event %s", len(legs), groups[0].EventID)
	}

	if p.MinOddsThreshold != 0 {
		threshold, err := odds.AmericanToDecimal(p.MinOddsThreshold)
		if err != nil {
			return violation("min odds threshold %d is invalid", p.MinOddsThreshold)
		}
		met := false
		for _, l := range legs {
			if dec, err := odds.AmericanToDecimal(l.OfferedOdds); err == nil && dec >= threshold {
				met = true
				break
			}
		}
		if !met {
			return violation("no leg at or above %+d", p.MinOddsThreshold)
		}
	}
	return nil
}
