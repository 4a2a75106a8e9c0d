// Command find_best runs one search over a sport's board and prints the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/config"
	"parlay-ev-bot/internal/engine"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/logging"
	"parlay-ev-bot/internal/policies"
)

func main() {
	cfg := config.Load()

	sport := flag.String("sport", feed.SportMLB, "sport key, e.g. baseball_mlb or tennis")
	size := flag.Int("size", cfg.ParlaySize, "legs per parlay")
	mode := flag.String("mode", string(fairvalue.ModeLocal), "fair value mode: local or external")
	refine := flag.Bool("refine", false, "re-price the winner with the devig service")
	timeout := flag.Duration("timeout", 2*time.Minute, "search deadline")
	flag.Parse()

	logger, err := logging.New("find_best", cfg.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := config.Validate(cfg); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	m, ok := fairvalue.ParseMode(*mode)
	if !ok {
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}

	analysisCfg, filePolicies, err := engine.AnalysisConfig(cfg)
	if err != nil {
		logger.Fatal("failed to load policy file", zap.Error(err))
	}
	policy, err := policyFor(cfg, filePolicies, *sport)
	if err != nil {
		logger.Fatal("no policy", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resolver := engine.NewResolver(cfg, nil, logger)
	searcher := analysis.NewSearcher(analysis.NewEvaluator(resolver, analysisCfg, logger), logger)
	legs := feed.LoadLegs(ctx, engine.NewSource(cfg), *sport, logger)

	res, err := searcher.Search(ctx, legs, analysis.SearchOptions{
		Size:           *size,
		Policy:         policy,
		Mode:           m,
		Refine:         *refine,
		MaxEvaluations: cfg.SearchMaxEvaluations,
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintf(os.Stderr, "no result: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Fatal("failed to write result", zap.Error(err))
	}
}

// policyFor prefers a policy from POLICY_FILE, then the built-in defaults.
func policyFor(cfg config.Config, fromFile []analysis.BoostPolicy, sport string) (analysis.BoostPolicy, error) {
	for _, p := range fromFile {
		if p.Bookmaker == cfg.BoostedBook && p.Sport == sport {
			return p, nil
		}
	}
	return policies.Lookup(nil, cfg.BoostedBook, sport)
}
