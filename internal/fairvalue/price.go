package fairvalue

import (
	"sort"
	"strconv"
	"strings"
)

// Mode selects how a fair combined price is produced.
type Mode string

const (
	// ModeLocal multiplies locally devigged leg prices. No I/O.
	ModeLocal Mode = "local"
	// ModeExternal asks the devig service, caching answers per odds set.
	ModeExternal Mode = "external"
)

// ParseMode validates a mode name. Empty means local.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeLocal:
		return ModeLocal, true
	case ModeExternal:
		return ModeExternal, true
	}
	return "", false
}

// Source records where a Price came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
	SourceFallback Source = "fallback" // external failed, local estimate cached in its place
)

// Price is a fair combined parlay price.
type Price struct {
	Decimal  float64 `json:"decimal"`
	American int     `json:"american"`
	Source   Source  `json:"source"`
}

// LegPrice is the sharp price of one leg. Opposing is the sharp price of the
// other side of a two-way market, 0 when unknown.
type LegPrice struct {
	Odds     int
	Opposing int
}

// Key builds the cache key for a set of leg odds: ascending, comma joined.
// [150, -110, -110] and [-110, -110, 150] share the key "-110,-110,150".
func Key(odds []int) string {
	sorted := append([]int(nil), odds...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, o := range sorted {
		parts[i] = strconv.Itoa(o)
	}
	return strings.Join(parts, ",")
}

func oddsOf(legs []LegPrice) []int {
	out := make([]int, len(legs))
	for i, l := range legs {
		out[i] = l.Odds
	}
	return out
}
