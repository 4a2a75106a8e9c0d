package alerts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"parlay-ev-bot/internal/analysis"
	"parlay-ev-bot/internal/metrics"
)

// Opportunity is a positive EV parlay found by a scan.
type Opportunity struct {
	Key       string          `json:"key"`
	ScanID    string          `json:"scan_id"`
	RunID     string          `json:"run_id"`
	Sport     string          `json:"sport"`
	Bookmaker string          `json:"bookmaker"`
	Result    analysis.Result `json:"result"`
	StakeUSD  float64         `json:"stake_usd,omitempty"`
	FoundAt   time.Time       `json:"found_at"`
}

// Publisher forwards opportunities to another system.
type Publisher interface {
	Publish(ctx context.Context, opp Opportunity) error
	Close() error
}

// Notifier handles alert notifications
type Notifier struct {
	mu         sync.Mutex
	lastAlerts map[string]time.Time // Dedupe alerts
	cooldown   time.Duration        // Minimum time between same alerts
	log        *zap.Logger
	pub        Publisher // optional
	bankroll   float64
}

// NewNotifier creates a new notifier. pub may be nil.
func NewNotifier(cooldown time.Duration, log *zap.Logger, pub Publisher) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{
		lastAlerts: make(map[string]time.Time),
		cooldown:   cooldown,
		log:        log,
		pub:        pub,
	}
}

// SetBankroll enables dollar stake sizing in alerts. 0 disables it.
func (n *Notifier) SetBankroll(bankroll float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bankroll = bankroll
}

// ParlayKey identifies a parlay by sport and its legs, in any order.
func ParlayKey(sport string, legs []analysis.Leg) string {
	keys := make([]string, len(legs))
	for i, l := range legs {
		keys[i] = l.Key()
	}
	sort.Strings(keys)
	return sport + "#" + strings.Join(keys, "+")
}

// checkCooldown reports whether key was alerted within the cooldown, and
// records the alert when it was not.
func (n *Notifier) checkCooldown(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if lastTime, ok := n.lastAlerts[key]; ok {
		if time.Since(lastTime) < n.cooldown {
			return true
		}
	}
	n.lastAlerts[key] = time.Now()
	return false
}

// AlertParlay logs and publishes a +EV parlay unless the same legs were
// alerted within the cooldown. Returns whether an alert went out.
func (n *Notifier) AlertParlay(ctx context.Context, opp Opportunity) bool {
	if opp.Key == "" {
		opp.Key = ParlayKey(opp.Sport, opp.Result.Legs)
	}
	if n.checkCooldown(opp.Key) {
		return false
	}

	n.mu.Lock()
	bankroll := n.bankroll
	n.mu.Unlock()
	if bankroll > 0 {
		opp.StakeUSD = analysis.OptimalBetSize(bankroll, opp.Result.KellyStake)
	}
	if opp.FoundAt.IsZero() {
		opp.FoundAt = time.Now()
	}

	selections := make([]string, len(opp.Result.Legs))
	for i, l := range opp.Result.Legs {
		selections[i] = l.Label()
	}

	metrics.AlertsSent.Inc()
	n.log.Info("+EV parlay",
		zap.String("sport", opp.Sport),
		zap.String("bookmaker", opp.Bookmaker),
		zap.String("scan_id", opp.ScanID),
		zap.Strings("legs", selections),
		zap.Int("offered", opp.Result.OfferedAmerican),
		zap.Int("boosted", opp.Result.BoostedAmerican),
		zap.Int("fair", opp.Result.AdjustedFairAmerican),
		zap.Float64("ev_percent", opp.Result.EVPercent),
		zap.Float64("kelly", opp.Result.KellyStake),
		zap.Float64("stake_usd", opp.StakeUSD),
		zap.Int("correlated_groups", len(opp.Result.CorrelationNotes)),
	)

	if n.pub != nil {
		if err := n.pub.Publish(ctx, opp); err != nil {
			n.log.Error("publishing opportunity failed", zap.String("key", opp.Key), zap.Error(err))
		}
	}
	return true
}

// LogScan logs a scan completion
func (n *Notifier) LogScan(sport string, pool, checked, alerted int) {
	n.log.Info("scan complete",
		zap.String("sport", sport),
		zap.Int("legs", pool),
		zap.Int("combinations", checked),
		zap.Int("alerts", alerted),
	)
}

// LogError logs an error
func (n *Notifier) LogError(what string, err error) {
	n.log.Error("scan error", zap.String("context", what), zap.Error(err))
}

// CleanupOldAlerts removes records older than the cooldown (or an hour,
// whichever is longer).
func (n *Notifier) CleanupOldAlerts() {
	n.mu.Lock()
	defer n.mu.Unlock()
	cutoff := time.Now().Add(-max(n.cooldown, time.Hour))
	for key, t := range n.lastAlerts {
		if t.Before(cutoff) {
			delete(n.lastAlerts, key)
		}
	}
}

// Close closes the publisher, if any.
func (n *Notifier) Close() error {
	if n.pub == nil {
		return nil
	}
	return n.pub.Close()
}
