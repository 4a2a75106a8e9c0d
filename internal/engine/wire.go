package engine

import (
	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/config"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/policies"
)

// NewSource returns the configured odds feed.
func NewSource(cfg config.Config) feed.Source {
	if cfg.FeedSource == config.FeedOddsAPI {
		return feed.NewOddsAPIClient(cfg.OddsAPIKey, cfg.OddsAPIBaseURL, cfg.SharpBook, cfg.BoostedBook)
	}
	return feed.DemoSource{}
}

// NewResolver builds the fair-value resolver. far is an optional shared
// cache tier behind the in-process LRU.
func NewResolver(cfg config.Config, far fairvalue.Cache, log *zap.Logger) *fairvalue.Resolver {
	local := fairvalue.LocalEstimator{VigFraction: cfg.VigFraction, Method: cfg.DevigMethod}

	var cache fairvalue.Cache = fairvalue.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL)
	if far != nil {
		cache = fairvalue.Tiered{Near: cache, Far: far}
	}

	var devig fairvalue.Devigger
	if cfg.DevigURL != "" {
		devig = fairvalue.NewClient(cfg.DevigURL, cfg.DevigTimeout)
	}
	return fairvalue.NewResolver(local, devig, cache, log)
}

// AnalysisConfig builds the evaluator configuration, reading correlation
// profiles and policies from POLICY_FILE when set.
func AnalysisConfig(cfg config.Config) (analysis.Config, []analysis.BoostPolicy, error) {
	acfg := analysis.DefaultConfig()
	acfg.KellyFraction = cfg.KellyFraction
	if cfg.PolicyFile == "" {
		return acfg, nil, nil
	}

	f, err := policies.LoadFile(cfg.PolicyFile)
	if err != nil {
		return acfg, nil, err
	}
	acfg.Profiles = f.Profiles()
	return acfg, f.Policies, nil
}

// PreparePolicies seeds the built-in defaults and then writes the file
// policies over whatever is stored.
func PreparePolicies(store *policies.DB, bookmaker string, fromFile []analysis.BoostPolicy, log *zap.Logger) error {
	added, err := store.Seed(policies.Defaults(bookmaker))
	if err != nil {
		return err
	}
	for _, p := range fromFile {
		if err := store.Upsert(p); err != nil {
			return err
		}
	}
	log.Info("policies ready", zap.Int("defaults_added", added), zap.Int("from_file", len(fromFile)))
	return nil
}
