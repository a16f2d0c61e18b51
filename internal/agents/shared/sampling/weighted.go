package sampling

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Weighted draws an index with probability proportional to weights.
// Negative weights count as zero. It reports false when every weight is zero.
func Weighted(weights []float64, rng *rand.Rand) (int, bool) {
	if len(weights) == 0 {
		return 0, false
	}

	clean := make([]float64, len(weights))
	for i, w := range weights {
		if w > 0 {
			clean[i] = w
		}
	}

	cumulative := floats.CumSum(make([]float64, len(clean)), clean)
	total := cumulative[len(cumulative)-1]
	if total <= 0 {
		return 0, false
	}

	target := rng.Float64() * total
	idx := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > target })
	if idx >= len(cumulative) {
		idx = len(cumulative) - 1
	}
	return idx, true
}

// Normalize scales weights in place so they sum to one. All-zero input is left untouched.
func Normalize(weights []float64) {
	total := floats.Sum(weights)
	if total <= 0 {
		return
	}
	floats.Scale(1/total, weights)
}

// Choice returns a uniformly random element of items
func Choice[T any](items []T, rng *rand.Rand) T {
	return items[rng.IntN(len(items))]
}
