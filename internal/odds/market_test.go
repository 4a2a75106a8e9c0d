package odds

import "testing"

func TestClassifyMarket(t *testing.T) {
	tests := map[string]MarketType{
		"moneyline":                   MarketMoneyline,
		"h2h":                         MarketMoneyline,
		"Moneyline":                   MarketMoneyline,
		"runline":                     MarketSpread,
		"spreads":                     MarketSpread,
		"total":                       MarketTotal,
		"totals":                      MarketTotal,
		"winner_total_8.5":            MarketWinnerTotal,
		"first_half_winner_total_4.5": MarketWinnerTotal,
		"winner_total_games_22.5":     MarketWinnerTotal,
		"sets":                        MarketOther,
		"":                            MarketOther,
	}
	for key, want := range tests {
		if got := ClassifyMarket(key); got != want {
			t.Errorf("ClassifyMarket(%q) = %q, want %q", key, got, want)
		}
	}
}
