package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"parlay-ev-bot/internal/odds"
)

// Defaults for configuration values.
const (
	DefaultPort                 = "8080"
	DefaultSharpBook            = "pinnacle"
	DefaultBoostedBook          = "onyx"
	DefaultSports               = "baseball_mlb,tennis"
	DefaultFeedSource           = FeedDemo
	DefaultDevigTimeout         = 5 * time.Second
	DefaultVigFraction          = 0.0
	DefaultParlaySize           = 3
	DefaultSearchMaxEvaluations = 100000
	DefaultCacheSize            = 4096
	DefaultCacheTTL             = 6 * time.Hour
	DefaultPolicyDBPath         = "/data/policies.db"
	DefaultKafkaTopic           = "parlay.opportunities"
	DefaultPollInterval         = 60 * time.Second
	DefaultEVAlertThreshold     = 0.0
	DefaultAlertCooldown        = 15 * time.Minute
	DefaultKellyFraction        = 0.25
)

// Feed sources.
const (
	FeedDemo    = "demo"
	FeedOddsAPI = "oddsapi"
)

// Config holds all application configuration.
type Config struct {
	Env  string
	Port string

	// Odds feed
	FeedSource     string
	OddsAPIKey     string
	OddsAPIBaseURL string
	SharpBook      string
	BoostedBook    string
	Sports         []string

	// Fair value
	DevigURL     string // empty = local estimation only
	DevigTimeout time.Duration
	VigFraction  float64
	DevigMethod  odds.DevigMethod
	CacheSize    int
	CacheTTL     time.Duration
	RedisAddr    string // empty = in-process cache only

	// Search
	ParlaySize           int
	SearchMaxEvaluations int

	// Policies
	PolicyDBPath string
	PolicyFile   string

	// Scanning and alerts
	PollInterval     time.Duration
	EVAlertThreshold float64 // EV percent, e.g. 5 = 5%
	AlertCooldown    time.Duration
	KafkaBrokers     []string
	KafkaTopic       string
	KellyFraction    float64
	Bankroll         float64 // 0 = don't size stakes in dollars

	// parseErrs holds env values Load could not parse; Validate reports them.
	parseErrs []error
}

// Load reads configuration from environment variables (and .env file if present).
// Values that fail to parse keep their default and are reported by Validate.
func Load() Config {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg := Config{
		Env:            os.Getenv("ENV"),
		Port:           DefaultPort,
		FeedSource:     DefaultFeedSource,
		OddsAPIKey:     os.Getenv("ODDS_API_KEY"),
		OddsAPIBaseURL: os.Getenv("ODDS_API_BASE_URL"),
		SharpBook:      DefaultSharpBook,
		BoostedBook:    DefaultBoostedBook,
		Sports:         splitList(DefaultSports),

		DevigURL:     os.Getenv("DEVIG_URL"),
		DevigTimeout: DefaultDevigTimeout,
		VigFraction:  DefaultVigFraction,
		DevigMethod:  odds.DevigFlat,
		CacheSize:    DefaultCacheSize,
		CacheTTL:     DefaultCacheTTL,
		RedisAddr:    os.Getenv("REDIS_ADDR"),

		ParlaySize:           DefaultParlaySize,
		SearchMaxEvaluations: DefaultSearchMaxEvaluations,

		PolicyDBPath: DefaultPolicyDBPath,
		PolicyFile:   os.Getenv("POLICY_FILE"),

		PollInterval:     DefaultPollInterval,
		EVAlertThreshold: DefaultEVAlertThreshold,
		AlertCooldown:    DefaultAlertCooldown,
		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:       DefaultKafkaTopic,
		KellyFraction:    DefaultKellyFraction,
	}

	env := &envParser{}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("FEED_SOURCE"); v != "" {
		cfg.FeedSource = strings.ToLower(v)
	}
	if v := os.Getenv("SHARP_BOOK"); v != "" {
		cfg.SharpBook = v
	}
	if v := os.Getenv("BOOSTED_BOOK"); v != "" {
		cfg.BoostedBook = v
	}
	if v := os.Getenv("SPORTS"); v != "" {
		cfg.Sports = splitList(v)
	}

	env.millisVar("DEVIG_TIMEOUT_MS", &cfg.DevigTimeout)
	env.floatVar("VIG_FRACTION", &cfg.VigFraction)
	if v := os.Getenv("DEVIG_METHOD"); v != "" {
		cfg.DevigMethod = odds.DevigMethod(strings.ToLower(v))
	}
	env.intVar("CACHE_SIZE", &cfg.CacheSize)
	env.durationVar("CACHE_TTL", &cfg.CacheTTL)

	env.intVar("PARLAY_SIZE", &cfg.ParlaySize)
	env.intVar("SEARCH_MAX_EVALUATIONS", &cfg.SearchMaxEvaluations)

	if v := os.Getenv("POLICY_DB_PATH"); v != "" {
		cfg.PolicyDBPath = v
	}

	env.millisVar("POLL_INTERVAL_MS", &cfg.PollInterval)
	env.floatVar("EV_ALERT_THRESHOLD", &cfg.EVAlertThreshold)
	env.durationVar("ALERT_COOLDOWN", &cfg.AlertCooldown)
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.KafkaTopic = v
	}
	env.floatVar("KELLY_FRACTION", &cfg.KellyFraction)
	env.floatVar("BANKROLL", &cfg.Bankroll)

	cfg.parseErrs = env.errs
	return cfg
}

// Validate checks that configuration values are within acceptable ranges.
func Validate(cfg Config) error {
	if len(cfg.parseErrs) > 0 {
		return errors.Join(cfg.parseErrs...)
	}
	switch cfg.FeedSource {
	case FeedDemo:
	case FeedOddsAPI:
		if cfg.OddsAPIKey == "" {
			return fmt.Errorf("ODDS_API_KEY is required when FEED_SOURCE=%s", FeedOddsAPI)
		}
	default:
		return fmt.Errorf("FEED_SOURCE must be %q or %q, got %q", FeedDemo, FeedOddsAPI, cfg.FeedSource)
	}
	if len(cfg.Sports) == 0 {
		return fmt.Errorf("SPORTS must list at least one sport")
	}
	if cfg.SharpBook == "" || cfg.BoostedBook == "" {
		return fmt.Errorf("SHARP_BOOK and BOOSTED_BOOK must be set")
	}
	if cfg.VigFraction < 0 || cfg.VigFraction >= 1 {
		return fmt.Errorf("VIG_FRACTION must be in [0, 1), got %f", cfg.VigFraction)
	}
	if _, err := odds.ParseDevigMethod(string(cfg.DevigMethod)); err != nil {
		return fmt.Errorf("DEVIG_METHOD: %w", err)
	}
	if cfg.DevigTimeout <= 0 {
		return fmt.Errorf("DEVIG_TIMEOUT_MS must be positive, got %v", cfg.DevigTimeout)
	}
	if cfg.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be non-negative, got %v", cfg.CacheTTL)
	}
	if cfg.ParlaySize < 2 {
		return fmt.Errorf("PARLAY_SIZE must be at least 2, got %d", cfg.ParlaySize)
	}
	if cfg.SearchMaxEvaluations <= 0 {
		return fmt.Errorf("SEARCH_MAX_EVALUATIONS must be positive, got %d", cfg.SearchMaxEvaluations)
	}
	if cfg.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("POLL_INTERVAL_MS must be at least 10ms, got %v", cfg.PollInterval)
	}
	if cfg.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be non-negative, got %v", cfg.AlertCooldown)
	}
	if cfg.KellyFraction <= 0 || cfg.KellyFraction > 1 {
		return fmt.Errorf("KELLY_FRACTION must be between 0 and 1, got %f", cfg.KellyFraction)
	}
	if cfg.Bankroll < 0 {
		return fmt.Errorf("BANKROLL must be non-negative, got %f", cfg.Bankroll)
	}
	return nil
}

// FormatBankroll returns a human-readable string for the bankroll setting.
func FormatBankroll(bankroll float64) string {
	if bankroll <= 0 {
		return "not set"
	}
	return fmt.Sprintf("$%.2f", bankroll)
}

type envParser struct {
	errs []error
}

func (p *envParser) lookup(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func (p *envParser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s: invalid value %q: %w", key, v, err))
}

func (p *envParser) intVar(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) floatVar(key string, dst *float64) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (p *envParser) durationVar(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = d
	}
}

func (p *envParser) millisVar(key string, dst *time.Duration) {
	ms := int(*dst / time.Millisecond)
	p.intVar(key, &ms)
	*dst = time.Duration(ms) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
