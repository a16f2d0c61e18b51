package sampling

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeighted_NeverPicksZeroWeight(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	weights := []float64{0, 3, 0, 1}

	for i := 0; i < 500; i++ {
		idx, ok := Weighted(weights, rng)
		assert.True(t, ok)
		assert.Contains(t, []int{1, 3}, idx)
	}
}

func TestWeighted_AllZero(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	_, ok := Weighted([]float64{0, 0, -1}, rng)
	assert.False(t, ok)

	_, ok = Weighted(nil, rng)
	assert.False(t, ok)
}

func TestWeighted_Deterministic(t *testing.T) {
	weights := []float64{0.2, 0.5, 0.3}
	a := rand.New(rand.NewPCG(7, 7))
	b := rand.New(rand.NewPCG(7, 7))

	for i := 0; i < 50; i++ {
		x, _ := Weighted(weights, a)
		y, _ := Weighted(weights, b)
		assert.Equal(t, x, y)
	}
}

func TestNormalize(t *testing.T) {
	w := []float64{1, 3}
	Normalize(w)
	assert.InDelta(t, 0.25, w[0], 1e-9)
	assert.InDelta(t, 0.75, w[1], 1e-9)

	zeros := []float64{0, 0}
	Normalize(zeros)
	assert.Equal(t, []float64{0, 0}, zeros)
}
