package odds

import "strings"

// MarketType represents the type of betting market
type MarketType string

const (
	MarketMoneyline   MarketType = "moneyline"
	MarketSpread      MarketType = "spread"
	MarketTotal       MarketType = "total"
	MarketWinnerTotal MarketType = "winner_total" // compound winner + total, already priced jointly
	MarketOther       MarketType = "other"
)

// ClassifyMarket maps a raw feed market key onto a MarketType.
// Keys are matched case-insensitively; anything containing "winner_total"
// (e.g. "winner_total_8.5", "first_half_winner_total_4.5") is compound.
func ClassifyMarket(key string) MarketType {
	k := strings.ToLower(strings.TrimSpace(key))
	if strings.Contains(k, "winner_total") {
		return MarketWinnerTotal
	}
	switch k {
	case "moneyline", "h2h", "ml":
		return MarketMoneyline
	case "spread", "spreads", "runline", "run_line", "puckline", "puck_line", "handicap":
		return MarketSpread
	case "total", "totals", "over_under":
		return MarketTotal
	}
	return MarketOther
}
