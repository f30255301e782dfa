// Package rqalsh implements RQALSH (C5): reverse query-aware locality
// sensitive hashing via dynamic collision counting with radius
// contraction. It underlies the standalone RQALSH algorithm as well as
// RQALSH* (C8, over a Drusilla-Select candidate pool) and ML-RQALSH (C9,
// one sub-index per radius-stratified block).
package rqalsh

import (
	"fmt"
	"math"

	"github.com/rpcpool/afn-search/internal/mathx"
)

// Params holds the derived hash parameters of §4.5.1.
type Params struct {
	C     float64
	N     int
	Beta  float64
	Delta float64

	W      float64
	P1, P2 float64
	A, B   float64
	Alpha  float64
	M, L   int
}

// DeriveParams computes w, p1, p2, alpha, m, l from the approximation
// ratio c, dataset size n, false-positive target beta (as a fraction of
// n, i.e. CANDIDATES/n by default) and error probability delta.
func DeriveParams(c float64, n int, beta, delta float64) (Params, error) {
	if c <= 1 {
		return Params{}, fmt.Errorf("rqalsh: approximation ratio c=%v must be > 1", c)
	}
	if n <= 0 {
		return Params{}, fmt.Errorf("rqalsh: dataset size n=%d must be > 0", n)
	}
	if beta <= 0 || beta >= 1 {
		return Params{}, fmt.Errorf("rqalsh: beta=%v must be in (0,1)", beta)
	}
	if delta <= 0 || delta >= 1 {
		return Params{}, fmt.Errorf("rqalsh: delta=%v must be in (0,1)", delta)
	}

	w := math.Sqrt(8 * math.Log(c) / (c*c - 1))
	p1 := mathx.NewGaussianProb(w / 2)
	p2 := mathx.NewGaussianProb(w / (2 * c))
	if p1 <= p2 {
		return Params{}, fmt.Errorf("rqalsh: derived p1=%v <= p2=%v, cannot build a valid hash family for c=%v", p1, p2, c)
	}

	a := math.Sqrt(math.Log(2 / beta))
	b := math.Sqrt(math.Log(1 / delta))
	alpha := (a*p1 + b*p2) / (a + b)

	m := int(math.Ceil(math.Pow(a+b, 2) / (2 * math.Pow(p1-p2, 2))))
	if m < 1 {
		return Params{}, fmt.Errorf("rqalsh: derived m=%d must be >= 1 (check beta/delta)", m)
	}
	l := int(math.Ceil(alpha * float64(m)))
	if l < 1 {
		l = 1
	}
	if l > m {
		l = m
	}

	return Params{
		C: c, N: n, Beta: beta, Delta: delta,
		W: w, P1: p1, P2: p2, A: a, B: b, Alpha: alpha, M: m, L: l,
	}, nil
}
