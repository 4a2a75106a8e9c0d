package fairvalue

import (
	"errors"
	"fmt"

	"parlay-ev-bot/internal/odds"
)

// LocalEstimator removes a vig fraction from each sharp leg price and
// multiplies the results.
type LocalEstimator struct {
	VigFraction float64
	Method      odds.DevigMethod
}

// Estimate returns the locally estimated fair combined price.
func (e LocalEstimator) Estimate(legs []LegPrice) (Price, error) {
	if len(legs) == 0 {
		return Price{}, errors.New("no legs to price")
	}

	combined := 1.0
	for i, l := range legs {
		dec, err := odds.FairDecimal(l.Odds, l.Opposing, e.VigFraction, e.Method)
		if err != nil {
			return Price{}, fmt.Errorf("leg %d: %w", i, err)
		}
		combined *= dec
	}

	american, err := odds.DecimalToAmerican(combined)
	if err != nil {
		return Price{}, err
	}
	return Price{Decimal: combined, American: american, Source: SourceLocal}, nil
}

// usesOpposing reports whether an estimate for legs depends on their
// opposing prices, which the cache key does not carry.
func (e LocalEstimator) usesOpposing(legs []LegPrice) bool {
	if e.Method != odds.DevigMultiplicative && e.Method != odds.DevigPower {
		return false
	}
	for _, l := range legs {
		if odds.ValidateAmerican(l.Opposing) == nil {
			return true
		}
	}
	return false
}
