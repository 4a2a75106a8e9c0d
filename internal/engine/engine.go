package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parlay-ev-bot/internal/alerts"
	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/config"
	"parlay-ev-bot/internal/fairvalue"
	"parlay-ev-bot/internal/feed"
	"parlay-ev-bot/internal/policies"
)

const cleanupInterval = 30 * time.Minute

// Report summarises one sport within a scan.
type Report struct {
	ScanID  string
	Sport   string
	Legs    int
	Search  analysis.SearchResult
	Alerted bool
	Err     error
}

// Engine is the main orchestrator: it polls the feed for each configured
// sport, searches for the best boosted parlay and alerts on +EV results.
type Engine struct {
	source   feed.Source
	searcher *analysis.Searcher
	store    policies.Getter
	notifier *alerts.Notifier
	cfg      config.Config
	refine   bool
	log      *zap.Logger
}

// New creates a new Engine with all dependencies. store may be nil, in which
// case the built-in default policies apply. refine re-prices each scan's
// winner against the devig service.
func New(
	source feed.Source,
	searcher *analysis.Searcher,
	store policies.Getter,
	notifier *alerts.Notifier,
	cfg config.Config,
	refine bool,
	log *zap.Logger,
) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		source:   source,
		searcher: searcher,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		refine:   refine,
		log:      log,
	}
}

// Run scans immediately and then on every poll interval. It blocks until ctx
// is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	e.log.Info("starting polling loop",
		zap.Strings("sports", e.cfg.Sports),
		zap.Duration("interval", e.cfg.PollInterval),
	)
	e.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return

		case <-cleanupTicker.C:
			e.notifier.CleanupOldAlerts()

		case <-ticker.C:
			e.Scan(ctx)
		}
	}
}

// Scan performs a single scan cycle over every configured sport.
func (e *Engine) Scan(ctx context.Context) []Report {
	scanID := uuid.NewString()
	reports := make([]Report, 0, len(e.cfg.Sports))
	for _, sport := range e.cfg.Sports {
		if ctx.Err() != nil {
			break
		}
		rep := e.ScanSport(ctx, scanID, sport)
		if rep.Err != nil && !errors.Is(rep.Err, analysis.ErrNoEligibleCombination) &&
			!errors.Is(rep.Err, analysis.ErrInsufficientLegs) {
			e.notifier.LogError("scanning "+sport, rep.Err)
		}
		reports = append(reports, rep)
	}
	return reports
}

// ScanSport searches one sport's board and alerts when the winner clears the
// EV threshold.
func (e *Engine) ScanSport(ctx context.Context, scanID, sport string) Report {
	rep := Report{ScanID: scanID, Sport: sport}

	policy, err := policies.Lookup(e.store, e.cfg.BoostedBook, sport)
	if err != nil {
		rep.Err = err
		return rep
	}

	legs := feed.LoadLegs(ctx, e.source, sport, e.log)
	rep.Legs = len(legs)

	res, err := e.searcher.Search(ctx, legs, analysis.SearchOptions{
		Size:           e.cfg.ParlaySize,
		Policy:         policy,
		Mode:           fairvalue.ModeLocal,
		Refine:         e.refine,
		MaxEvaluations: e.cfg.SearchMaxEvaluations,
	})
	rep.Search = res
	if err != nil {
		rep.Err = err
		e.notifier.LogScan(sport, len(legs), res.CombinationsChecked, 0)
		return rep
	}

	if best := res.Best; best != nil && e.shouldAlert(*best) {
		rep.Alerted = e.notifier.AlertParlay(ctx, alerts.Opportunity{
			ScanID:    scanID,
			RunID:     res.RunID,
			Sport:     sport,
			Bookmaker: policy.Bookmaker,
			Result:    *best,
		})
	}

	alerted := 0
	if rep.Alerted {
		alerted = 1
	}
	e.notifier.LogScan(sport, len(legs), res.CombinationsChecked, alerted)
	return rep
}

func (e *Engine) shouldAlert(r analysis.Result) bool {
	return r.PositiveEV && r.BoostApplied && r.EVPercent >= e.cfg.EVAlertThreshold
}
