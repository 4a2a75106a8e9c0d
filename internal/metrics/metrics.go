package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parlay_evaluations_total",
		Help: "Parlay evaluations by fair-value mode.",
	}, []string{"mode"})

	CombinationsChecked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlay_search_combinations_checked_total",
		Help: "Eligible combinations scored by the search.",
	})

	CombinationsFiltered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlay_search_combinations_filtered_total",
		Help: "Combinations rejected by boost policy eligibility.",
	})

	SearchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parlay_search_duration_seconds",
		Help:    "Wall time of a combination search.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"outcome"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_cache_lookups_total",
		Help: "Fair-value cache lookups by result.",
	}, []string{"result"})

	DevigCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_devig_calls_total",
		Help: "External devig calls by outcome.",
	}, []string{"outcome"})

	FeedFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_fetches_total",
		Help: "Odds feed fetches by sport and outcome.",
	}, []string{"sport", "outcome"})

	AlertsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlay_alerts_sent_total",
		Help: "Positive EV parlay alerts emitted.",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		Evaluations, CombinationsChecked, CombinationsFiltered, SearchDuration,
		CacheLookups, DevigCalls, FeedFetches, AlertsSent,
	} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("registering collector: %w", err)
		}
	}
	return nil
}
