package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"parlay-ev-bot/internal/correlation"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/odds"
)

func localEvaluator() *Evaluator {
	resolver := fairvalue.NewResolver(fairvalue.LocalEstimator{}, nil, nil, nil)
	return NewEvaluator(resolver, DefaultConfig(), nil)
}

func leg(event, market, side string, fair, offered int) Leg {
	return Leg{EventID: event, Market: market, Side: side, FairOdds: fair, OfferedOdds: offered}
}

var mlbBoost = BoostPolicy{Bookmaker: "onyx", Sport: "baseball_mlb", BoostPercent: 100, MinLegs: 3}

func TestEvaluateEndToEnd(t *testing.T) {
	legs := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g2", "moneyline", "away", -120, -110),
		leg("g3", "moneyline", "home", -120, -110),
	}

	res, err := localEvaluator().Evaluate(context.Background(), legs, mlbBoost, fairvalue.ModeLocal)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
		delta    float64
	}{
		{"offered decimal", res.OfferedDecimal, 6.958, 0.001},
		{"fair decimal", res.FairDecimal, 6.162, 0.001},
		{"boosted decimal", res.BoostedDecimal, 13.916, 0.001},
		{"adjusted fair", res.AdjustedFairDecimal, res.FairDecimal, 1e-12},
		{"correlation adjustment", res.CorrelationAdjustment, 1.0, 1e-12},
		{"ev percent", res.EVPercent, 125.8, 0.5},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.expected) > c.delta {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.expected)
		}
	}

	if !res.PositiveEV || !res.BoostApplied {
		t.Errorf("PositiveEV=%v BoostApplied=%v, want both true", res.PositiveEV, res.BoostApplied)
	}
	if len(res.CorrelationNotes) != 0 {
		t.Errorf("distinct events produced notes: %v", res.CorrelationNotes)
	}
	if res.FairAmerican != 516 {
		t.Errorf("FairAmerican = %d, want 516", res.FairAmerican)
	}
	if res.BoostedAmerican != 1292 {
		t.Errorf("BoostedAmerican = %d, want 1292", res.BoostedAmerican)
	}
	if res.KellyStake <= 0 {
		t.Errorf("KellyStake = %v, want > 0 for positive EV", res.KellyStake)
	}
}

func TestEvaluateBoostScenarios(t *testing.T) {
	tests := []struct {
		name     string
		fair     int
		offered  int
		boost    float64
		minEV    float64
		maxEV    float64
		positive bool
	}{
		{"100% boost over short sharp", -105, -110, 100, 80, 95, true},
		{"no boost, same prices", -110, -110, 0, -0.0001, 0.0001, false},
		{"no boost, worse prices", -105, -110, 0, -10, -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs := []Leg{
				leg("a", "moneyline", "home", tt.fair, tt.offered),
				leg("b", "moneyline", "home", tt.fair, tt.offered),
				leg("c", "moneyline", "home", tt.fair, tt.offered),
			}
			policy := BoostPolicy{Bookmaker: "onyx", Sport: "x", BoostPercent: tt.boost}
			res, err := localEvaluator().Evaluate(context.Background(), legs, policy, fairvalue.ModeLocal)
			if err != nil {
				t.Fatal(err)
			}
			if res.EVPercent < tt.minEV || res.EVPercent > tt.maxEV {
				t.Errorf("EVPercent = %v, want in [%v, %v]", res.EVPercent, tt.minEV, tt.maxEV)
			}
			if math.Abs(res.EVPercent) > 1e-6 && res.PositiveEV != tt.positive {
				t.Errorf("PositiveEV = %v, want %v", res.PositiveEV, tt.positive)
			}
		})
	}
}

func TestEvaluateCorrelatedGroup(t *testing.T) {
	legs := []Leg{
		{EventID: "g1", Event: "Yankees vs Red Sox", Market: "moneyline", Side: "home", FairOdds: -120, OfferedOdds: -110},
		{EventID: "g1", Event: "Yankees vs Red Sox", Market: "total", Side: "over", FairOdds: -120, OfferedOdds: -110},
		leg("g2", "moneyline", "home", -120, -110),
	}

	tests := []struct {
		name    string
		profile string
		factor  float64
	}{
		{"standard", "", 0.97},
		{"same event", correlation.ProfileSameEvent, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := mlbBoost
			policy.CorrelationProfile = tt.profile
			res, err := localEvaluator().Evaluate(context.Background(), legs, policy, fairvalue.ModeLocal)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(res.CorrelationAdjustment-tt.factor) > 1e-9 {
				t.Errorf("CorrelationAdjustment = %v, want %v", res.CorrelationAdjustment, tt.factor)
			}
			if math.Abs(res.AdjustedFairDecimal-res.FairDecimal*tt.factor) > 1e-9 {
				t.Errorf("AdjustedFairDecimal = %v, want %v", res.AdjustedFairDecimal, res.FairDecimal*tt.factor)
			}
			if len(res.CorrelationNotes) != 1 {
				t.Fatalf("got %d notes, want 1", len(res.CorrelationNotes))
			}
			note := res.CorrelationNotes[0]
			if note.EventID != "g1" || math.Abs(note.ReductionPercent-(1-tt.factor)*100) > 1e-9 {
				t.Errorf("note = %+v", note)
			}
			if len(note.Markets) != 2 || note.Markets[0] != odds.MarketMoneyline || note.Markets[1] != odds.MarketTotal {
				t.Errorf("note markets = %v", note.Markets)
			}
			wantEV := (res.BoostedDecimal/(res.FairDecimal*tt.factor) - 1) * 100
			if math.Abs(res.EVPercent-wantEV) > 1e-9 {
				t.Errorf("EVPercent = %v, want %v", res.EVPercent, wantEV)
			}
		})
	}
}

func TestEvaluateCompoundMarketNotShrunk(t *testing.T) {
	legs := []Leg{
		leg("g1", "winner_total_8.5", "home_over", -120, -110),
		leg("g1", "winner_total_8.5", "away_over", -120, -110),
		leg("g2", "moneyline", "home", -120, -110),
	}
	res, err := localEvaluator().Evaluate(context.Background(), legs, mlbBoost, fairvalue.ModeLocal)
	if err != nil {
		t.Fatal(err)
	}
	if res.CorrelationAdjustment != 1.0 {
		t.Errorf("CorrelationAdjustment = %v, want 1.0", res.CorrelationAdjustment)
	}
	if len(res.CorrelationNotes) != 1 || res.CorrelationNotes[0].ReductionPercent != 0 {
		t.Errorf("notes = %+v, want one note with no reduction", res.CorrelationNotes)
	}
}

func TestEvaluateIneligibleIsUnboosted(t *testing.T) {
	legs := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g2", "moneyline", "home", -120, -110),
	}
	res, err := localEvaluator().Evaluate(context.Background(), legs, mlbBoost, fairvalue.ModeLocal)
	if err != nil {
		t.Fatal(err)
	}
	if res.BoostApplied {
		t.Error("two legs under a three leg minimum should not be boosted")
	}
	if res.PolicyViolation == "" {
		t.Error("missing policy violation reason")
	}
	if res.BoostedDecimal != res.OfferedDecimal {
		t.Errorf("BoostedDecimal = %v, want offered %v", res.BoostedDecimal, res.OfferedDecimal)
	}
}

func TestEvaluateInvalidOdds(t *testing.T) {
	tests := []struct {
		name  string
		leg   Leg
		field string
	}{
		{"zero offered", leg("g1", "moneyline", "home", -120, 0), "offered_odds"},
		{"small fair", leg("g1", "moneyline", "home", 50, -110), "fair_odds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs := []Leg{tt.leg, leg("g2", "moneyline", "home", -120, -110)}
			_, err := localEvaluator().Evaluate(context.Background(), legs, mlbBoost, fairvalue.ModeLocal)
			if !errors.Is(err, odds.ErrInvalidOdds) {
				t.Fatalf("err = %v, want ErrInvalidOdds", err)
			}
			var legErr *InvalidLegError
			if !errors.As(err, &legErr) || legErr.Field != tt.field {
				t.Errorf("err = %v, want InvalidLegError on %s", err, tt.field)
			}
		})
	}

	if _, err := localEvaluator().Evaluate(context.Background(), nil, mlbBoost, fairvalue.ModeLocal); !errors.Is(err, ErrNoLegs) {
		t.Errorf("empty parlay err = %v, want ErrNoLegs", err)
	}
}

func TestEvaluateLegEdges(t *testing.T) {
	legs := []Leg{
		{EventID: "g1", Market: "moneyline", Side: "home", Selection: "Yankees", FairOdds: -120, OfferedOdds: -110},
		leg("g2", "moneyline", "away", 150, 140),
		leg("g3", "moneyline", "home", -110, -110),
	}
	res, err := localEvaluator().Evaluate(context.Background(), legs, mlbBoost, fairvalue.ModeLocal)
	if err != nil {
		t.Fatal(err)
	}

	expected := []float64{4.132, -4.0, 0}
	for i, e := range res.Edges {
		if math.Abs(e.EdgePercent-expected[i]) > 0.01 {
			t.Errorf("edge[%d] = %v, want %v", i, e.EdgePercent, expected[i])
		}
	}
	if res.Edges[0].Selection != "Yankees" || res.Edges[1].Selection != "away" {
		t.Errorf("selections = %q, %q", res.Edges[0].Selection, res.Edges[1].Selection)
	}
}

func TestCorrelationNoteString(t *testing.T) {
	n := CorrelationNote{EventID: "g1", Event: "A vs B", Markets: []odds.MarketType{odds.MarketMoneyline, odds.MarketTotal}, ReductionPercent: 3}
	want := "A vs B: correlated moneyline + total, fair value reduced 3.0%"
	if n.String() != want {
		t.Errorf("String() = %q, want %q", n.String(), want)
	}
}

func TestParlayKelly(t *testing.T) {
	tests := []struct {
		name        string
		fair        float64
		boosted     float64
		fraction    float64
		expectedMin float64
		expectedMax float64
	}{
		{"Positive EV - full Kelly", 6.162, 13.916, 1.0, 0.09, 0.11},
		{"Positive EV - quarter Kelly", 6.162, 13.916, 0.25, 0.02, 0.03},
		{"Fair price - near zero", 6.162, 6.162, 1.0, 0, 0.0001},
		{"Negative EV - zero", 7.44, 6.958, 1.0, 0, 0},
		{"Degenerate fair price", 1.0, 2.0, 1.0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParlayKelly(tt.fair, tt.boosted, tt.fraction)
			if got < tt.expectedMin || got > tt.expectedMax {
				t.Errorf("ParlayKelly(%v, %v, %v) = %v, want in [%v, %v]",
					tt.fair, tt.boosted, tt.fraction, got, tt.expectedMin, tt.expectedMax)
			}
		})
	}
}

func TestOptimalBetSize(t *testing.T) {
	if got := OptimalBetSize(1000, 0.025); math.Abs(got-25) > 1e-9 {
		t.Errorf("OptimalBetSize = %v, want 25", got)
	}
}
