package internal

import (
	"context"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"parlay-ev-bot/internal/alerts"
	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/config"
	"parlay-ev-bot/internal/engine"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/policies"
)

type capturePublisher struct {
	mu   sync.Mutex
	opps []alerts.Opportunity
}

func (c *capturePublisher) Publish(_ context.Context, opp alerts.Opportunity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opps = append(c.opps, opp)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

// TestFullPipeline runs the demo board through policy lookup, search,
// re-evaluation and alerting.
func TestFullPipeline(t *testing.T) {
	ctx := context.Background()

	store, err := policies.NewDB(filepath.Join(t.TempDir(), "policies.db"))
	if err != nil {
		t.Fatalf("Failed to create DB: %v", err)
	}
	defer store.Close()

	if err := engine.PreparePolicies(store, "onyx", nil, zap.NewNop()); err != nil {
		t.Fatalf("PreparePolicies: %v", err)
	}

	// Step 1: policy comes from the store
	policy, err := policies.Lookup(store, "onyx", feed.SportMLB)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if policy.BoostPercent != 100 || policy.MinLegs != 3 {
		t.Fatalf("MLB policy = %+v", policy)
	}

	// Step 2: the board becomes a leg pool
	legs := feed.LoadLegs(ctx, feed.DemoSource{}, feed.SportMLB, zap.NewNop())
	if len(legs) != 48 {
		t.Fatalf("Expected 48 MLB legs, got %d", len(legs))
	}

	// Step 3: search
	resolver := fairvalue.NewResolver(fairvalue.LocalEstimator{}, nil, nil, nil)
	eval := analysis.NewEvaluator(resolver, analysis.DefaultConfig(), nil)
	searcher := analysis.NewSearcher(eval, nil)

	res, err := searcher.Search(ctx, legs, analysis.SearchOptions{Policy: policy})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalPossible != 17296 {
		t.Errorf("TotalPossible = %d, want C(48,3) = 17296", res.TotalPossible)
	}
	if res.CombinationsChecked+res.Filtered != int(res.TotalPossible) {
		t.Errorf("checked %d + filtered %d != %d", res.CombinationsChecked, res.Filtered, res.TotalPossible)
	}
	best := res.Best
	if best == nil || !best.PositiveEV || !best.BoostApplied {
		t.Fatalf("Best = %+v", best)
	}
	t.Logf("Best: %v EV=%.2f%% boosted=%+d fair=%+d", legLabels(best.Legs), best.EVPercent, best.BoostedAmerican, best.AdjustedFairAmerican)

	// Step 4: evaluating the winner directly gives the same numbers
	again, err := eval.Evaluate(ctx, best.Legs, policy, fairvalue.ModeLocal)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(again.EVPercent-best.EVPercent) > 1e-9 {
		t.Errorf("re-evaluated EV %.6f != searched EV %.6f", again.EVPercent, best.EVPercent)
	}

	// Step 5: alert once, then suppress
	pub := &capturePublisher{}
	notifier := alerts.NewNotifier(time.Hour, nil, pub)
	notifier.SetBankroll(1000)
	opp := alerts.Opportunity{RunID: res.RunID, Sport: feed.SportMLB, Bookmaker: "onyx", Result: *best}
	if !notifier.AlertParlay(ctx, opp) || notifier.AlertParlay(ctx, opp) {
		t.Error("expected exactly one alert for the same parlay")
	}
	if len(pub.opps) != 1 || pub.opps[0].StakeUSD <= 0 {
		t.Errorf("published = %+v", pub.opps)
	}
}

// TestEngineScanEndToEnd drives the engine over both demo sports.
func TestEngineScanEndToEnd(t *testing.T) {
	cfg := config.Config{
		BoostedBook:  "onyx",
		Sports:       []string{feed.SportMLB, feed.SportTennis},
		ParlaySize:   3,
		CacheSize:    64,
		PollInterval: time.Minute,
	}
	resolver := engine.NewResolver(cfg, nil, nil)
	searcher := analysis.NewSearcher(analysis.NewEvaluator(resolver, analysis.DefaultConfig(), nil), nil)
	pub := &capturePublisher{}
	eng := engine.New(feed.DemoSource{}, searcher, nil, alerts.NewNotifier(time.Hour, nil, pub), cfg, false, nil)

	reports := eng.Scan(context.Background())
	if len(reports) != 2 {
		t.Fatalf("got %d reports", len(reports))
	}
	for _, rep := range reports {
		if rep.Err != nil {
			t.Errorf("%s: %v", rep.Sport, rep.Err)
		}
		if rep.Search.Best == nil {
			t.Errorf("%s: no best parlay", rep.Sport)
		}
	}
}

// TestEVCalculationAccuracy verifies parlay EV math against hand-worked values.
// Three legs, sharp -120 each (fair 6.162), offered -110 each (6.958).
func TestEVCalculationAccuracy(t *testing.T) {
	legs := []analysis.Leg{
		{EventID: "g1", Market: "moneyline", Side: "home", FairOdds: -120, OfferedOdds: -110},
		{EventID: "g2", Market: "moneyline", Side: "away", FairOdds: -120, OfferedOdds: -110},
		{EventID: "g3", Market: "moneyline", Side: "home", FairOdds: -120, OfferedOdds: -110},
	}

	testCases := []struct {
		name       string
		boost      float64
		expectedEV float64
	}{
		{
			name:  "No boost",
			boost: 0,
			// 6.958 / 6.162 - 1
			expectedEV: 12.9,
		},
		{
			name:  "25% boost",
			boost: 25,
			// 6.958 * 1.25 = 8.697; 8.697 / 6.162 - 1
			expectedEV: 41.1,
		},
		{
			name:  "100% boost",
			boost: 100,
			// 6.958 * 2 = 13.916; 13.916 / 6.162 - 1
			expectedEV: 125.8,
		},
	}

	eval := analysis.NewEvaluator(fairvalue.NewResolver(fairvalue.LocalEstimator{}, nil, nil, nil), analysis.DefaultConfig(), nil)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			policy := analysis.BoostPolicy{Bookmaker: "onyx", Sport: "test", BoostPercent: tc.boost, MinLegs: 3}
			res, err := eval.Evaluate(context.Background(), legs, policy, fairvalue.ModeLocal)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if math.Abs(res.EVPercent-tc.expectedEV) > 0.1 {
				t.Errorf("EV calculation wrong: got %.2f%%, expected %.1f%%", res.EVPercent, tc.expectedEV)
			}
		})
	}
}

// TestKellyAccuracy verifies Kelly sizing for the 100% boost example.
func TestKellyAccuracy(t *testing.T) {
	// p = 1/6.162 = 0.1623, d = 13.916
	// full Kelly = (p*d - 1) / (d - 1) = 0.0974; quarter = 0.0244
	got := analysis.ParlayKelly(6.16204, 13.91577, analysis.DefaultKellyFraction)
	if math.Abs(got-0.0244) > 0.0005 {
		t.Errorf("ParlayKelly = %.4f, want 0.0244", got)
	}

	if got := analysis.ParlayKelly(6.162, 6.0, 0.25); got != 0 {
		t.Errorf("negative edge Kelly = %v, want 0", got)
	}
}

func legLabels(legs []analysis.Leg) []string {
	out := make([]string, len(legs))
	for i, l := range legs {
		out[i] = l.Label()
	}
	return out
}
