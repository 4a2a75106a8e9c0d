package analysis

import (
	"fmt"

	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/odds"
)

// Leg is one selection offered by the boosted book, paired with the sharp
// book's price for the same outcome.
type Leg struct {
	EventID     string          `json:"event_id"`
	Event       string          `json:"event,omitempty"` // "Yankees vs Red Sox"
	Market      string          `json:"market"`          // raw feed key, e.g. "runline"
	MarketType  odds.MarketType `json:"market_type,omitempty"`
	Side        string          `json:"side"` // "home", "away", "home_over"
	Selection   string          `json:"selection,omitempty"`
	FairOdds    int             `json:"fair_odds"`
	OfferedOdds int             `json:"offered_odds"`

	// FairOpposingOdds is the sharp price on the other side of a two-way
	// market. 0 when unknown.
	FairOpposingOdds int `json:"fair_opposing_odds,omitempty"`
}

// Key identifies a leg by event, market and side.
func (l Leg) Key() string {
	return l.EventID + "|" + l.Market + "|" + l.Side
}

// EventKey implements correlation.Leg.
func (l Leg) EventKey() string {
	return l.EventID
}

// Type implements correlation.Leg. An unset MarketType is derived from Market.
func (l Leg) Type() odds.MarketType {
	if l.MarketType != "" {
		return l.MarketType
	}
	return odds.ClassifyMarket(l.Market)
}

// Validate checks both prices.
func (l Leg) Validate() error {
	if err := odds.ValidateAmerican(l.FairOdds); err != nil {
		return &InvalidLegError{Leg: l, Field: "fair_odds", Err: err}
	}
	if err := odds.ValidateAmerican(l.OfferedOdds); err != nil {
		return &InvalidLegError{Leg: l, Field: "offered_odds", Err: err}
	}
	return nil
}

// Label is the selection label, falling back to the side.
func (l Leg) Label() string {
	if l.Selection != "" {
		return l.Selection
	}
	return l.Side
}

// InvalidLegError reports which price of which leg could not be used.
type InvalidLegError struct {
	Leg   Leg
	Field string
	Err   error
}

func (e *InvalidLegError) Error() string {
	return fmt.Sprintf("leg %s: %s: %v", e.Leg.Key(), e.Field, e.Err)
}

func (e *InvalidLegError) Unwrap() error {
	return e.Err
}

func legPrices(legs []Leg) []fairvalue.LegPrice {
	out := make([]fairvalue.LegPrice, len(legs))
	for i, l := range legs {
		out[i] = fairvalue.LegPrice{Odds: l.FairOdds, Opposing: l.FairOpposingOdds}
	}
	return out
}
