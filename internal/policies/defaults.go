package policies

import (
	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/feed"
)

// Defaults are the boosts the store starts with: a 100% MLB boost and a 25%
// tennis boost, each needing at least three legs.
func Defaults(bookmaker string) []analysis.BoostPolicy {
	return []analysis.BoostPolicy{
		{Bookmaker: bookmaker, Sport: feed.SportMLB, BoostPercent: 100, MinLegs: 3},
		{Bookmaker: bookmaker, Sport: feed.SportTennis, BoostPercent: 25, MinLegs: 3},
	}
}
