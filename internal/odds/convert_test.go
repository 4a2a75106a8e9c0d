package odds

import (
	"errors"
	"math"
	"testing"
)

func TestAmericanToImplied(t *testing.T) {
	tests := []struct {
		name     string
		odds     int
		expected float64
		delta    float64
	}{
		{"Even money +100", 100, 0.5, 0.001},
		{"Even money -100", -100, 0.5, 0.001},
		{"Favorite -150", -150, 0.6, 0.001},
		{"Underdog +150", 150, 0.4, 0.001},
		{"Heavy favorite -300", -300, 0.75, 0.001},
		{"Standard -110", -110, 0.5238, 0.001},
		{"Zero odds", 0, 0, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AmericanToImplied(tt.odds)
			if math.Abs(result-tt.expected) > tt.delta {
				t.Errorf("AmericanToImplied(%d) = %v, want %v", tt.odds, result, tt.expected)
			}
		})
	}
}

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		odds     int
		expected float64
	}{
		{"Even money", 100, 2.0},
		{"Underdog +150", 150, 2.5},
		{"Favorite -150", -150, 1.6667},
		{"Standard -110", -110, 1.9091},
		{"Standard -120", -120, 1.8333},
		{"Longshot +10000", 10000, 101},
		{"Heavy favorite -10000", -10000, 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := AmericanToDecimal(tt.odds)
			if err != nil {
				t.Fatalf("AmericanToDecimal(%d) error: %v", tt.odds, err)
			}
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("AmericanToDecimal(%d) = %v, want %v", tt.odds, result, tt.expected)
			}
		})
	}
}

func TestAmericanToDecimalInvalid(t *testing.T) {
	for _, o := range []int{0, 1, -1, 99, -99, 50} {
		if _, err := AmericanToDecimal(o); !errors.Is(err, ErrInvalidOdds) {
			t.Errorf("AmericanToDecimal(%d) err = %v, want ErrInvalidOdds", o, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, o := range []int{-10000, -150, -101, 100, 101, 150, 10000} {
		dec, err := AmericanToDecimal(o)
		if err != nil {
			t.Fatalf("AmericanToDecimal(%d): %v", o, err)
		}
		back, err := DecimalToAmerican(dec)
		if err != nil {
			t.Fatalf("DecimalToAmerican(%v): %v", dec, err)
		}
		if diff := back - o; diff > 1 || diff < -1 {
			t.Errorf("round trip %d -> %v -> %d", o, dec, back)
		}
	}
}

func TestDecimalMonotonic(t *testing.T) {
	// More negative odds = shorter price = decimal closer to 1
	prev := math.Inf(1)
	for _, o := range []int{-101, -110, -150, -300, -1000, -10000} {
		dec, err := AmericanToDecimal(o)
		if err != nil {
			t.Fatal(err)
		}
		if dec >= prev {
			t.Errorf("AmericanToDecimal(%d) = %v, not below previous %v", o, dec, prev)
		}
		if dec <= 1 {
			t.Errorf("AmericanToDecimal(%d) = %v, must stay above 1", o, dec)
		}
		prev = dec
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		decimal  float64
		expected int
	}{
		{2.0, 100},
		{2.5, 150},
		{6.964, 596},
		{1.5, -200},
		{1.909090909, -110},
		{1.8, -125},
	}

	for _, tt := range tests {
		got, err := DecimalToAmerican(tt.decimal)
		if err != nil {
			t.Fatalf("DecimalToAmerican(%v): %v", tt.decimal, err)
		}
		if got != tt.expected {
			t.Errorf("DecimalToAmerican(%v) = %d, want %d", tt.decimal, got, tt.expected)
		}
	}
}

func TestDecimalToAmericanInvalid(t *testing.T) {
	for _, d := range []float64{1, 0.5, 0, -2, math.NaN(), math.Inf(1)} {
		if _, err := DecimalToAmerican(d); !errors.Is(err, ErrInvalidOdds) {
			t.Errorf("DecimalToAmerican(%v) err = %v, want ErrInvalidOdds", d, err)
		}
	}
}

func TestParseAmerican(t *testing.T) {
	good := map[string]int{"+150": 150, "-110": -110, " 200 ": 200, "-100": -100}
	for in, want := range good {
		got, err := ParseAmerican(in)
		if err != nil || got != want {
			t.Errorf("ParseAmerican(%q) = %d, %v; want %d", in, got, err, want)
		}
	}

	for _, in := range []string{"", "abc", "+-110", "50", "1.5", "0"} {
		if _, err := ParseAmerican(in); !errors.Is(err, ErrInvalidOdds) {
			t.Errorf("ParseAmerican(%q) err = %v, want ErrInvalidOdds", in, err)
		}
	}
}

func TestClampAmerican(t *testing.T) {
	tests := map[int]int{50: 100, 99: 100, 100: 100, 250: 250, 0: -100, -40: -100, -100: -100, -250: -250}
	for in, want := range tests {
		if got := ClampAmerican(in); got != want {
			t.Errorf("ClampAmerican(%d) = %d, want %d", in, got, want)
		}
	}
}
