package correlation

import "parlay-ev-bot/internal/odds"

// Leg is what the detector needs to know about a parlay leg.
type Leg interface {
	EventKey() string
	Type() odds.MarketType
}

// Group is a set of legs sharing one event.
type Group[L Leg] struct {
	EventID string
	Legs    []L
}

// Correlated reports whether the group holds more than one leg.
func (g Group[L]) Correlated() bool {
	return len(g.Legs) > 1
}

// MarketTypes lists member market types in member order.
func (g Group[L]) MarketTypes() []odds.MarketType {
	types := make([]odds.MarketType, len(g.Legs))
	for i, l := range g.Legs {
		types[i] = l.Type()
	}
	return types
}

// GroupByEvent partitions legs by event. Groups appear in the order their
// event was first seen and members keep their input order.
func GroupByEvent[L Leg](legs []L) []Group[L] {
	var groups []Group[L]
	index := make(map[string]int, len(legs))

	for _, leg := range legs {
		id := leg.EventKey()
		if i, ok := index[id]; ok {
			groups[i].Legs = append(groups[i].Legs, leg)
			continue
		}
		index[id] = len(groups)
		groups = append(groups, Group[L]{EventID: id, Legs: []L{leg}})
	}
	return groups
}
