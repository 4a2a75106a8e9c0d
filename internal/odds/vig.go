package odds

import (
	"fmt"
	"math"
)

// DevigMethod selects how a single sharp price is turned into a fair one.
type DevigMethod string

const (
	// DevigFlat divides each leg's implied probability by (1 + vig).
	DevigFlat DevigMethod = "flat"
	// DevigMultiplicative normalises a two-way market proportionally.
	DevigMultiplicative DevigMethod = "multiplicative"
	// DevigPower uses the power method on a two-way market.
	DevigPower DevigMethod = "power"
)

// ParseDevigMethod validates a configured method name.
func ParseDevigMethod(s string) (DevigMethod, error) {
	switch DevigMethod(s) {
	case "", DevigFlat:
		return DevigFlat, nil
	case DevigMultiplicative, DevigPower:
		return DevigMethod(s), nil
	}
	return "", fmt.Errorf("unknown devig method %q", s)
}

// RemoveVigFlat strips a fixed vig fraction from one implied probability.
// A vig of 0.025 turns 0.5238 (-110) into 0.5110.
func RemoveVigFlat(implied, vig float64) float64 {
	if implied <= 0 || vig <= -1 {
		return 0
	}
	return implied / (1 + vig)
}

// FairDecimal returns the fair decimal price of one leg.
//
// The flat method only needs the leg's own price. The two-way methods need the
// sharp price of the opposing side; when it is unknown (0) or invalid they fall
// back to the flat method so the result is always defined.
func FairDecimal(american, opposing int, vig float64, method DevigMethod) (float64, error) {
	if err := ValidateAmerican(american); err != nil {
		return 0, err
	}
	implied := AmericanToImplied(american)

	var fair float64
	switch {
	case method == DevigMultiplicative && ValidateAmerican(opposing) == nil:
		fair, _ = RemoveVigFromAmerican(american, opposing)
	case method == DevigPower && ValidateAmerican(opposing) == nil:
		fair, _ = RemoveVigPowerFromAmerican(american, opposing)
	default:
		fair = RemoveVigFlat(implied, vig)
	}
	return ImpliedToDecimal(fair)
}

// RemoveVig removes the vig/juice from a two-way market
// Returns the true probabilities that sum to 1.0
//
// Method: Multiplicative vig removal (proportional)
// trueProbA = impliedA / (impliedA + impliedB)
// trueProbB = impliedB / (impliedA + impliedB)
func RemoveVig(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 {
		return 0, 0
	}

	total := impliedA + impliedB
	if total <= 0 {
		return 0, 0
	}

	return impliedA / total, impliedB / total
}

// RemoveVigFromAmerican converts American odds to vig-free probabilities
func RemoveVigFromAmerican(oddsA, oddsB int) (float64, float64) {
	return RemoveVig(AmericanToImplied(oddsA), AmericanToImplied(oddsB))
}

// RemoveVigPower removes vig using the Power method
// This accounts for the favorite-longshot bias: longshots are systematically overbet.
// Finds k such that p1^k + p2^k = 1, then:
// - trueProb1 = p1^k
// - trueProb2 = p2^k
func RemoveVigPower(impliedA, impliedB float64) (float64, float64) {
	if impliedA <= 0 || impliedB <= 0 {
		return 0, 0
	}

	if math.Abs(impliedA+impliedB-1.0) < 1e-9 {
		return impliedA, impliedB
	}

	k := findPowerExponent(impliedA, impliedB)
	return math.Pow(impliedA, k), math.Pow(impliedB, k)
}

// findPowerExponent finds k such that p1^k + p2^k = 1 using bisection search.
// For overround markets (sum > 1) k ends up > 1.
func findPowerExponent(p1, p2 float64) float64 {
	const (
		tolerance = 1e-9
		maxIters  = 100
	)

	low, high := 0.01, 10.0

	for i := 0; i < maxIters; i++ {
		mid := (low + high) / 2
		currentSum := math.Pow(p1, mid) + math.Pow(p2, mid)

		if math.Abs(currentSum-1.0) < tolerance {
			return mid
		}

		// Higher k makes p^k smaller, so sum decreases
		if currentSum > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	return (low + high) / 2
}

// RemoveVigPowerFromAmerican converts American odds to vig-free probabilities using Power method
func RemoveVigPowerFromAmerican(oddsA, oddsB int) (float64, float64) {
	return RemoveVigPower(AmericanToImplied(oddsA), AmericanToImplied(oddsB))
}
