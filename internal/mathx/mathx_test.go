package mathx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestL2(t *testing.T) {
	a := []float32{0, 0, 0, 0}
	b := []float32{3, 3, 3, 3}
	require.InDelta(t, 6.0, L2(a, b, 4), 1e-9)
}

func TestIP(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	require.InDelta(t, 32.0, IP(a, b, 3), 1e-9)
}

func TestNewGaussianProbMonotone(t *testing.T) {
	prev := 0.0
	for _, x := range []float64{0.1, 0.5, 1.0, 1.96, 3.0} {
		p := NewGaussianProb(x)
		require.GreaterOrEqual(t, p, prev)
		require.LessOrEqual(t, p, 1.0)
		prev = p
	}
	// P(|Z|<=1.96) ~= 0.95
	require.InDelta(t, 0.95, NewGaussianProb(1.96), 0.01)
}

func TestRNGDeterministic(t *testing.T) {
	r1 := NewRNG(DefaultSeed)
	r2 := NewRNG(DefaultSeed)
	for i := 0; i < 100; i++ {
		require.Equal(t, r1.Float64(), r2.Float64())
	}
}

func TestGaussianRejectsZeroU1(t *testing.T) {
	calls := 0
	rnd := func() float64 {
		calls++
		if calls == 1 {
			return 0
		}
		return 0.5
	}
	v := Gaussian(0, 1, rnd)
	require.False(t, math.IsNaN(v))
	require.Equal(t, 3, calls)
}
