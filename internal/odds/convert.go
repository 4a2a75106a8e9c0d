package odds

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidOdds is returned for American odds with magnitude under 100,
// malformed odds strings, and decimal odds that are not greater than 1.
var ErrInvalidOdds = errors.New("invalid odds")

// ValidateAmerican checks that odds are a usable American price.
// Zero and anything between -100 and +100 (exclusive) is rejected.
func ValidateAmerican(odds int) error {
	if odds >= 100 || odds <= -100 {
		return nil
	}
	return fmt.Errorf("%w: american %d (magnitude must be >= 100)", ErrInvalidOdds, odds)
}

// ParseAmerican parses a user or feed supplied price such as "+150" or "-110".
func ParseAmerican(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOdds, s)
	}
	if err := ValidateAmerican(n); err != nil {
		return 0, err
	}
	return n, nil
}

// AmericanToDecimal converts American odds to decimal odds.
// Example: +150 → 2.5, -150 → 1.667
func AmericanToDecimal(odds int) (float64, error) {
	if err := ValidateAmerican(odds); err != nil {
		return 0, err
	}
	if odds > 0 {
		return float64(odds)/100.0 + 1, nil
	}
	return 100.0/math.Abs(float64(odds)) + 1, nil
}

// DecimalToAmerican converts decimal odds back to American odds.
// Halves round up (toward +inf), so -110.5 becomes -110.
func DecimalToAmerican(decimal float64) (int, error) {
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) || decimal <= 1 {
		return 0, fmt.Errorf("%w: decimal %v", ErrInvalidOdds, decimal)
	}
	if decimal >= 2 {
		return roundHalfUp((decimal - 1) * 100), nil
	}
	return roundHalfUp(-100 / (decimal - 1)), nil
}

// ClampAmerican forces a price to magnitude >= 100 on its side of zero.
// Zero is treated as the favourite side.
func ClampAmerican(odds int) int {
	if odds > 0 && odds < 100 {
		return 100
	}
	if odds <= 0 && odds > -100 {
		return -100
	}
	return odds
}

// AmericanToImplied converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func AmericanToImplied(odds int) float64 {
	if odds == 0 {
		return 0
	}

	if odds > 0 {
		// Underdog: probability = 100 / (odds + 100)
		return 100.0 / (float64(odds) + 100.0)
	}
	// Favorite: probability = |odds| / (|odds| + 100)
	return math.Abs(float64(odds)) / (math.Abs(float64(odds)) + 100.0)
}

// ImpliedToDecimal converts a probability to its decimal price.
func ImpliedToDecimal(prob float64) (float64, error) {
	if prob <= 0 || prob >= 1 || math.IsNaN(prob) {
		return 0, fmt.Errorf("%w: probability %v", ErrInvalidOdds, prob)
	}
	return 1 / prob, nil
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
