package mathutil

import (
	"math"
	"testing"
)

func TestBinomial(t *testing.T) {
	tests := []struct {
		n, k     int
		expected int64
	}{
		{5, 3, 10},
		{3, 3, 1},
		{2, 3, 0},
		{10, 0, 1},
		{52, 5, 2598960},
		{100, 3, 161700},
		{-1, 2, 0},
	}

	for _, tt := range tests {
		if got := Binomial(tt.n, tt.k); got != tt.expected {
			t.Errorf("Binomial(%d, %d) = %d, want %d", tt.n, tt.k, got, tt.expected)
		}
	}
}

func TestBinomialSaturates(t *testing.T) {
	if got := Binomial(1000, 500); got != math.MaxInt64 {
		t.Errorf("Binomial(1000, 500) = %d, want saturation", got)
	}
}

func TestNextCombinationEnumeratesAll(t *testing.T) {
	n, k := 5, 3
	idx := FirstCombination(k)
	seen := 1
	prev := append([]int(nil), idx...)

	for NextCombination(idx, n) {
		seen++
		if !lexLess(prev, idx) {
			t.Fatalf("combinations out of order: %v then %v", prev, idx)
		}
		for i := 1; i < k; i++ {
			if idx[i] <= idx[i-1] {
				t.Fatalf("indices not increasing: %v", idx)
			}
		}
		prev = append(prev[:0], idx...)
	}

	if int64(seen) != Binomial(n, k) {
		t.Errorf("enumerated %d combinations, want %d", seen, Binomial(n, k))
	}
	if prev[0] != 2 || prev[1] != 3 || prev[2] != 4 {
		t.Errorf("last combination = %v, want [2 3 4]", prev)
	}
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
