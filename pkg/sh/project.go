package sh

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// PolarFunc is an RGB function on the sphere.
type PolarFunc func(theta, phi float32) math.Vec3

// ScalarPolarFunc is a scalar function on the sphere.
type ScalarPolarFunc func(theta, phi float32) float32

// Project estimates the SH coefficients of fn by Monte-Carlo integration
// over the samples.
func Project(fn PolarFunc, samples []Sample, bands int) []math.Vec3 {
	n := CoeffCount(bands)
	coeffs := make([]math.Vec3, n)
	if len(samples) == 0 {
		return coeffs
	}

	for _, s := range samples {
		value := fn(s.Theta, s.Phi)
		for c := 0; c < n; c++ {
			coeffs[c] = coeffs[c].Add(value.Scale(s.Coeffs[c]))
		}
	}

	weight := 4 * math32.Pi / float32(len(samples))
	for c := range coeffs {
		coeffs[c] = coeffs[c].Scale(weight)
	}
	return coeffs
}

// ProjectScalar is Project for scalar functions.
func ProjectScalar(fn ScalarPolarFunc, samples []Sample, bands int) []float32 {
	n := CoeffCount(bands)
	coeffs := make([]float32, n)
	if len(samples) == 0 {
		return coeffs
	}

	for _, s := range samples {
		value := fn(s.Theta, s.Phi)
		for c := 0; c < n; c++ {
			coeffs[c] += value * s.Coeffs[c]
		}
	}

	weight := 4 * math32.Pi / float32(len(samples))
	for c := range coeffs {
		coeffs[c] *= weight
	}
	return coeffs
}

// Dot returns the componentwise inner product of two RGB coefficient vectors
// over their common length.
func Dot(a, b []math.Vec3) math.Vec3 {
	var sum math.Vec3
	for i := 0; i < min(len(a), len(b)); i++ {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}
