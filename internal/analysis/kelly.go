package analysis

import "math"

// DefaultKellyFraction is quarter Kelly.
const DefaultKellyFraction = 0.25

// CalculateKellyDecimal computes Kelly for decimal odds
// f* = (p * d - 1) / (d - 1)
// where d = decimal odds
func CalculateKellyDecimal(trueProb, decimalOdds, fraction float64) float64 {
	if decimalOdds <= 1 || trueProb <= 0 || trueProb >= 1 {
		return 0
	}

	p := trueProb
	d := decimalOdds

	kelly := (p*d - 1) / (d - 1)

	kelly = math.Max(0, kelly)
	kelly = math.Min(kelly, 1.0)

	return kelly * fraction
}

// ParlayKelly sizes a boosted parlay. The win probability is the inverse of
// the correlation-adjusted fair price; the payout is the boosted price.
func ParlayKelly(adjustedFairDecimal, boostedDecimal, fraction float64) float64 {
	if adjustedFairDecimal <= 1 {
		return 0
	}
	return CalculateKellyDecimal(1/adjustedFairDecimal, boostedDecimal, fraction)
}

// OptimalBetSize returns the dollar amount to bet given bankroll
func OptimalBetSize(bankroll, kellyFraction float64) float64 {
	return bankroll * kellyFraction
}
