// Package mathx implements the small numeric kernel (C1) shared by every
// index in the AFN toolkit: Euclidean distance, inner product, Gaussian
// sampling, and a discretely-integrated Gaussian CDF used only at index
// build time to size hash parameters.
package mathx

import "math"

// L2 returns the Euclidean distance between a and b, both of length d.
func L2(a, b []float32, d int) float64 {
	var sum float64
	for i := 0; i < d; i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// IP returns the inner product of a and b, both of length d.
func IP(a, b []float32, d int) float64 {
	var sum float64
	for i := 0; i < d; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Gaussian draws one sample from N(mu, sigma^2) via Box-Muller, using rnd
// as the uniform source. rnd must return a value in [0, 1); the first
// uniform is rejected and redrawn if it is exactly 0, since log(0) is
// undefined.
func Gaussian(mu, sigma float64, rnd func() float64) float64 {
	var u1 float64
	for {
		u1 = rnd()
		if u1 != 0 {
			break
		}
	}
	u2 := rnd()
	z0 := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mu + sigma*z0
}

// gaussStep is the integration step used by NewGaussianProb. Three-decimal
// precision is all the build-time hash-parameter derivation needs.
const gaussStep = 1e-3

// NewGaussianProb returns P(|Z| <= x) for a standard normal Z, computed by
// discrete integration of the standard normal density over [-x, x] in
// steps of 1e-3. This is only ever called during index construction (to
// derive RQALSH's p1/p2 collision probabilities), so O(x/step) per call is
// acceptable.
func NewGaussianProb(x float64) float64 {
	if x <= 0 {
		return 0
	}
	const invSqrt2Pi = 0.3989422804014327 // 1/sqrt(2*pi)
	var area float64
	for t := -x; t < x; t += gaussStep {
		density := invSqrt2Pi * math.Exp(-0.5*t*t)
		area += density * gaussStep
	}
	if area > 1 {
		area = 1
	}
	return area
}
