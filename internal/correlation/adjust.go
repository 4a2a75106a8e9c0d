package correlation

import (
	"fmt"

	"parlay-ev-bot/internal/odds"
)

// Built-in profile names.
const (
	ProfileStandard  = "standard"
	ProfileSameEvent = "same_event"
)

// Rule shrinks the fair price of a group that contains every listed market type.
type Rule struct {
	Markets []odds.MarketType `yaml:"markets" json:"markets"`
	Factor  float64           `yaml:"factor" json:"factor"`
}

// Table is an ordered list of rules. The first matching rule wins.
type Table struct {
	Name  string `yaml:"name" json:"name"`
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Standard is the calibrated table used for cross-event boosts.
func Standard() Table {
	return Table{
		Name: ProfileStandard,
		Rules: []Rule{
			{Markets: []odds.MarketType{odds.MarketMoneyline, odds.MarketTotal}, Factor: 0.97},
			{Markets: []odds.MarketType{odds.MarketMoneyline, odds.MarketSpread}, Factor: 0.95},
			{Markets: []odds.MarketType{odds.MarketSpread, odds.MarketTotal}, Factor: 0.96},
		},
	}
}

// SameEvent is the harsher table observed for same-event-only boosts.
func SameEvent() Table {
	return Table{
		Name: ProfileSameEvent,
		Rules: []Rule{
			{Markets: []odds.MarketType{odds.MarketMoneyline, odds.MarketTotal}, Factor: 0.85},
			{Markets: []odds.MarketType{odds.MarketMoneyline, odds.MarketSpread}, Factor: 0.80},
			{Markets: []odds.MarketType{odds.MarketSpread, odds.MarketTotal}, Factor: 0.90},
		},
	}
}

// Factor returns the multiplicative shrinkage for a same-event group with the
// given member market types. Groups of fewer than two legs return 1.0, as do
// groups whose only relationship is an already jointly priced winner/total
// market.
func (t Table) Factor(types []odds.MarketType) float64 {
	if len(types) < 2 {
		return 1.0
	}

	present := make(map[odds.MarketType]bool, len(types))
	for _, m := range types {
		present[m] = true
	}

	for _, r := range t.Rules {
		if containsAll(present, r.Markets) {
			return r.Factor
		}
	}

	// no rule matched; winner_total markets already price the correlation
	return 1.0
}

// Validate checks that every factor lies in (0, 1].
func (t Table) Validate() error {
	for i, r := range t.Rules {
		if r.Factor <= 0 || r.Factor > 1 {
			return fmt.Errorf("profile %q rule %d: factor must be in (0,1], got %v", t.Name, i, r.Factor)
		}
		if len(r.Markets) == 0 {
			return fmt.Errorf("profile %q rule %d: no market types", t.Name, i)
		}
	}
	return nil
}

func containsAll(present map[odds.MarketType]bool, want []odds.MarketType) bool {
	if len(want) == 0 {
		return false
	}
	for _, m := range want {
		if !present[m] {
			return false
		}
	}
	return true
}

// Profiles maps profile names to tables.
type Profiles map[string]Table

// DefaultProfiles holds the two built-in tables.
func DefaultProfiles() Profiles {
	return Profiles{
		ProfileStandard:  Standard(),
		ProfileSameEvent: SameEvent(),
	}
}

// Lookup returns the named table, or the standard table when the name is
// empty or unknown.
func (p Profiles) Lookup(name string) Table {
	if t, ok := p[name]; ok {
		return t
	}
	if t, ok := p[ProfileStandard]; ok {
		return t
	}
	return Standard()
}
