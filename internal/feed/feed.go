package feed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/metrics"
	"parlay-ev-bot/internal/odds"
)

// ErrFeedUnavailable wraps any failure to fetch or decode a board.
var ErrFeedUnavailable = errors.New("odds feed unavailable")

// Event is one game or match with prices from the sharp and boosted books.
type Event struct {
	ID        string                  `json:"id"`
	Sport     string                  `json:"sport"`
	HomeTeam  string                  `json:"home_team"`
	AwayTeam  string                  `json:"away_team"`
	StartTime time.Time               `json:"start_time"`
	Markets   map[string]MarketPrices `json:"markets"`
}

// MarketPrices holds both books' prices for one market, keyed by side
// ("home", "away", "over", "home_over").
type MarketPrices struct {
	Sharp   map[string]int `json:"sharp"`
	Boosted map[string]int `json:"boosted"`
}

// Label is the display name, "Red Sox @ Yankees".
func (e Event) Label() string {
	return e.AwayTeam + " @ " + e.HomeTeam
}

// Source fetches the current board for a sport.
type Source interface {
	Events(ctx context.Context, sport string) ([]Event, error)
}

// Selection names the outcome a side refers to.
//
//	home          → "Yankees"
//	away_under    → "Red Sox under"
//	over_8.5      → "Yankees vs Red Sox over 8.5"
//	over          → "Yankees vs Red Sox over"
func Selection(e Event, side string) string {
	switch side {
	case "home":
		return e.HomeTeam
	case "away":
		return e.AwayTeam
	}

	head, rest, found := strings.Cut(side, "_")
	if found && (head == "home" || head == "away") {
		team := e.AwayTeam
		if head == "home" {
			team = e.HomeTeam
		}
		return team + " " + strings.ReplaceAll(rest, "_", " ")
	}
	return e.HomeTeam + " vs " + e.AwayTeam + " " + strings.ReplaceAll(side, "_", " ")
}

// BuildLegs turns events into parlay legs. A side becomes a leg only when
// both books price it. Markets and sides are visited in sorted order so the
// same board always yields the same pool.
func BuildLegs(events []Event) []analysis.Leg {
	var legs []analysis.Leg
	seen := make(map[string]bool)

	for _, e := range events {
		for _, market := range sortedKeys(e.Markets) {
			prices := e.Markets[market]
			sides := sortedKeys(prices.Sharp)

			for _, side := range sides {
				sharp := prices.Sharp[side]
				boosted, ok := prices.Boosted[side]
				if !ok || sharp == 0 || boosted == 0 {
					continue
				}

				leg := analysis.Leg{
					EventID:     e.ID,
					Event:       e.Label(),
					Market:      market,
					MarketType:  odds.ClassifyMarket(market),
					Side:        side,
					Selection:   Selection(e, side),
					FairOdds:    sharp,
					OfferedOdds: boosted,
				}
				if len(sides) == 2 {
					leg.FairOpposingOdds = prices.Sharp[otherSide(sides, side)]
				}

				if seen[leg.Key()] {
					continue
				}
				seen[leg.Key()] = true
				legs = append(legs, leg)
			}
		}
	}
	return legs
}

// LoadLegs fetches a board and builds its legs. Feed failures are logged and
// produce an empty pool.
func LoadLegs(ctx context.Context, src Source, sport string, log *zap.Logger) []analysis.Leg {
	events, err := src.Events(ctx, sport)
	if err != nil {
		metrics.FeedFetches.WithLabelValues(sport, "error").Inc()
		log.Warn("feed unavailable, using empty pool", zap.String("sport", sport), zap.Error(err))
		return nil
	}
	metrics.FeedFetches.WithLabelValues(sport, "ok").Inc()
	return BuildLegs(events)
}

func otherSide(sides []string, side string) string {
	if sides[0] == side {
		return sides[1]
	}
	return sides[0]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
