package mathutil

import "math"

// Binomial returns C(n, k), the number of k-subsets of an n-set.
// Results that would overflow int64 saturate at math.MaxInt64.
func Binomial(n, k int) int64 {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}

	var result int64 = 1
	for i := 1; i <= k; i++ {
		// result * (n-k+i) / i stays integral at every step
		num := int64(n - k + i)
		if result > math.MaxInt64/num {
			return math.MaxInt64
		}
		result = result * num / int64(i)
	}
	return result
}

// NextCombination advances idx to the next k-subset of {0..n-1} in
// lexicographic order. idx must hold a strictly increasing sequence.
// Returns false once idx was the last combination.
func NextCombination(idx []int, n int) bool {
	k := len(idx)
	i := k - 1
	for i >= 0 && idx[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	idx[i]++
	for j := i + 1; j < k; j++ {
		idx[j] = idx[j-1] + 1
	}
	return true
}

// FirstCombination returns {0, 1, ..., k-1}.
func FirstCombination(k int) []int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
