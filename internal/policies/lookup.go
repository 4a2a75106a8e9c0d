package policies

import (
	"errors"
	"fmt"

	"parlay-ev-bot/internal/analysis"
)

// ErrNoPolicy is returned when neither the store nor the defaults cover a
// bookmaker and sport.
var ErrNoPolicy = errors.New("no boost policy")

// Getter reads one stored policy. *DB satisfies it.
type Getter interface {
	Get(bookmaker, sport string) (*Stored, error)
}

// Lookup returns the stored policy for bookmaker and sport, falling back to
// the built-in defaults. g may be nil.
func Lookup(g Getter, bookmaker, sport string) (analysis.BoostPolicy, error) {
	if g != nil {
		stored, err := g.Get(bookmaker, sport)
		if err != nil {
			return analysis.BoostPolicy{}, err
		}
		if stored != nil {
			return stored.BoostPolicy, nil
		}
	}
	for _, p := range Defaults(bookmaker) {
		if p.Sport == sport {
			return p, nil
		}
	}
	return analysis.BoostPolicy{}, fmt.Errorf("%w for %s/%s", ErrNoPolicy, bookmaker, sport)
}
