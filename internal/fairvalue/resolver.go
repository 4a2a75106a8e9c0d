package fairvalue

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"parlay-ev-bot/internal/metrics"
	"parlay-ev-bot/internal/odds"
)

// Resolver produces fair combined prices, locally or through a devig service.
type Resolver struct {
	local LocalEstimator
	devig Devigger
	cache Cache
	log   *zap.Logger
	group singleflight.Group
}

// NewResolver wires a resolver. devig may be nil, in which case external
// requests are answered locally and nothing is cached.
func NewResolver(local LocalEstimator, devig Devigger, cache Cache, log *zap.Logger) *Resolver {
	if cache == nil {
		cache = NewMemoryCache(1024, 0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{local: local, devig: devig, cache: cache, log: log}
}

// HasExternal reports whether a devig service is configured.
func (r *Resolver) HasExternal() bool {
	return r.devig != nil
}

// Resolve returns the fair price for legs. An error means the leg odds
// themselves are invalid; devig outages are absorbed.
func (r *Resolver) Resolve(ctx context.Context, legs []LegPrice, mode Mode) (Price, error) {
	if mode != ModeExternal || r.devig == nil {
		return r.local.Estimate(legs)
	}

	// Validate before touching the network so bad input never gets cached.
	for _, l := range legs {
		if err := odds.ValidateAmerican(l.Odds); err != nil {
			return Price{}, err
		}
	}

	key := Key(oddsOf(legs))
	if p, ok := r.cache.Get(ctx, key); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return p, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// A caller that is already gone must not start or poison a shared call.
	if ctx.Err() != nil {
		return r.abandoned(legs)
	}

	// The shared call outlives any one caller; the devig client bounds it.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		p, cacheable, err := r.resolveExternal(shared, key, legs)
		if err != nil {
			return Price{}, err
		}
		if cacheable {
			r.cache.Set(shared, key, p)
		}
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Price{}, res.Err
		}
		return res.Val.(Price), nil
	case <-ctx.Done():
		return r.abandoned(legs)
	}
}

// abandoned answers a caller whose context ended before the devig service
// did. The estimate is not cached.
func (r *Resolver) abandoned(legs []LegPrice) (Price, error) {
	p, err := r.local.Estimate(legs)
	if err != nil {
		return Price{}, err
	}
	p.Source = SourceFallback
	return p, nil
}

// resolveExternal asks the devig service and falls back to a local
// estimate. cacheable is false when the fallback depends on more than the
// odds in the key, or when the call was cut short by cancellation rather
// than a service failure.
func (r *Resolver) resolveExternal(ctx context.Context, key string, legs []LegPrice) (p Price, cacheable bool, err error) {
	american, err := r.devig.Devig(ctx, oddsOf(legs))
	if err == nil {
		american = odds.ClampAmerican(american)
		var dec float64
		dec, err = odds.AmericanToDecimal(american)
		if err == nil {
			metrics.DevigCalls.WithLabelValues("ok").Inc()
			return Price{Decimal: dec, American: american, Source: SourceExternal}, true, nil
		}
	}

	metrics.DevigCalls.WithLabelValues("fallback").Inc()
	r.log.Warn("devig service failed, using local estimate",
		zap.String("odds", key),
		zap.Error(err),
	)

	cancelled := errors.Is(err, context.Canceled)
	p, lerr := r.local.Estimate(legs)
	if lerr != nil {
		return Price{}, false, lerr
	}
	p.Source = SourceFallback
	return p, !cancelled && !r.local.usesOpposing(legs), nil
}
