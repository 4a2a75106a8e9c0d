package feed

import (
	"context"
	"fmt"
	"time"
)

// Sport keys served by DemoSource.
const (
	SportMLB    = "baseball_mlb"
	SportTennis = "tennis"
)

// DemoSource serves fixed pinnacle/onyx boards for offline runs and tests.
type DemoSource struct{}

// Events returns a fresh copy of the demo board for sport.
func (DemoSource) Events(_ context.Context, sport string) ([]Event, error) {
	switch sport {
	case SportMLB:
		return mlbBoard(), nil
	case SportTennis:
		return tennisBoard(), nil
	}
	return nil, fmt.Errorf("%w: no demo board for %q", ErrFeedUnavailable, sport)
}

type book = map[string]int

func twoBooks(sharp, boosted book) MarketPrices {
	return MarketPrices{Sharp: sharp, Boosted: boosted}
}

func demoTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func mlbBoard() []Event {
	return []Event{
		{
			ID: "mlb_1", Sport: SportMLB, HomeTeam: "Yankees", AwayTeam: "Red Sox",
			StartTime: demoTime("2025-06-27T19:10:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": -120, "away": 110}, book{"home": -115, "away": 105}),
				"runline":   twoBooks(book{"home": 145, "away": -165}, book{"home": 150, "away": -160}),
				"total":     twoBooks(book{"over": -110, "under": -110}, book{"over": -105, "under": -115}),
				"winner_total_8.5": twoBooks(
					book{"home_over": 280, "home_under": 180, "away_over": 320, "away_under": 240},
					book{"home_over": 290, "home_under": 185, "away_over": 330, "away_under": 245}),
				"first_half_winner_total_4.5": twoBooks(
					book{"home_over": 420, "home_under": 280, "away_over": 480, "away_under": 350},
					book{"home_over": 430, "home_under": 285, "away_over": 490, "away_under": 355}),
			},
		},
		{
			ID: "mlb_2", Sport: SportMLB, HomeTeam: "Dodgers", AwayTeam: "Giants",
			StartTime: demoTime("2025-06-27T22:10:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": -180, "away": 160}, book{"home": -175, "away": 155}),
				"runline":   twoBooks(book{"home": 120, "away": -140}, book{"home": 125, "away": -135}),
				"total":     twoBooks(book{"over": -115, "under": -105}, book{"over": -110, "under": 100}),
				"winner_total_9.5": twoBooks(
					book{"home_over": 240, "home_under": 190, "away_over": 380, "away_under": 290},
					book{"home_over": 250, "home_under": 195, "away_over": 390, "away_under": 295}),
				"first_half_winner_total_5.5": twoBooks(
					book{"home_over": 380, "home_under": 260, "away_over": 520, "away_under": 400},
					book{"home_over": 390, "home_under": 265, "away_over": 530, "away_under": 405}),
			},
		},
		{
			ID: "mlb_3", Sport: SportMLB, HomeTeam: "Astros", AwayTeam: "Angels",
			StartTime: demoTime("2025-06-27T20:05:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": -140, "away": 130}, book{"home": -135, "away": 125}),
				"runline":   twoBooks(book{"home": 110, "away": -130}, book{"home": 115, "away": -125}),
				"total":     twoBooks(book{"over": -108, "under": -112}, book{"over": -103, "under": -107}),
				"winner_total_8.5": twoBooks(
					book{"home_over": 260, "home_under": 200, "away_over": 340, "away_under": 280},
					book{"home_over": 270, "home_under": 205, "away_over": 350, "away_under": 285}),
			},
		},
		{
			ID: "mlb_4", Sport: SportMLB, HomeTeam: "Braves", AwayTeam: "Mets",
			StartTime: demoTime("2025-06-27T19:20:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": 105, "away": -125}, book{"home": 110, "away": -120}),
				"runline":   twoBooks(book{"home": -155, "away": 135}, book{"home": -150, "away": 140}),
				"total":     twoBooks(book{"over": -115, "under": -105}, book{"over": -110, "under": -100}),
				"winner_total_7.5": twoBooks(
					book{"home_over": 320, "home_under": 220, "away_over": 280, "away_under": 190},
					book{"home_over": 330, "home_under": 225, "away_over": 290, "away_under": 195}),
			},
		},
	}
}

func tennisBoard() []Event {
	return []Event{
		{
			ID: "tennis_1", Sport: SportTennis, HomeTeam: "Djokovic", AwayTeam: "Nadal",
			StartTime: demoTime("2025-06-27T14:00:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": -180, "away": 160}, book{"home": -175, "away": 155}),
				"sets":      twoBooks(book{"home": 120, "away": -140}, book{"home": 125, "away": -135}),
				"winner_total_games_22.5": twoBooks(
					book{"home_over": 290, "home_under": 200, "away_over": 380, "away_under": 260},
					book{"home_over": 300, "home_under": 205, "away_over": 390, "away_under": 265}),
			},
		},
		{
			ID: "tennis_2", Sport: SportTennis, HomeTeam: "Federer", AwayTeam: "Murray",
			StartTime: demoTime("2025-06-27T16:30:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": 140, "away": -160}, book{"home": 145, "away": -155}),
				"sets":      twoBooks(book{"home": -110, "away": -110}, book{"home": -105, "away": -115}),
				"winner_total_games_21.5": twoBooks(
					book{"home_over": 360, "home_under": 240, "away_over": 320, "away_under": 210},
					book{"home_over": 370, "home_under": 245, "away_over": 330, "away_under": 215}),
			},
		},
		{
			ID: "tennis_3", Sport: SportTennis, HomeTeam: "Alcaraz", AwayTeam: "Medvedev",
			StartTime: demoTime("2025-06-27T18:00:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": -130, "away": 120}, book{"home": -125, "away": 115}),
				"sets":      twoBooks(book{"home": 150, "away": -170}, book{"home": 155, "away": -165}),
			},
		},
		{
			ID: "tennis_4", Sport: SportTennis, HomeTeam: "Sinner", AwayTeam: "Rublev",
			StartTime: demoTime("2025-06-27T17:15:00Z"),
			Markets: map[string]MarketPrices{
				"moneyline": twoBooks(book{"home": 110, "away": -130}, book{"home": 115, "away": -125}),
				"sets":      twoBooks(book{"home": -140, "away": 120}, book{"home": -135, "away": 125}),
			},
		},
	}
}
