package sh

import (
	"github.com/chewxy/math32"
)

// PhongLobeCoefficients returns the per-band convolution weights of the
// clamped cosine lobe max(cosθ, 0): π, 2π/3, then the closed form for even
// bands. Odd bands above 1 vanish.
func PhongLobeCoefficients(bands int) []float32 {
	checkBands(bands)
	out := make([]float32, bands)
	out[0] = math32.Pi
	if bands > 1 {
		out[1] = 2 * math32.Pi / 3
	}

	for l := 2; l < bands; l++ {
		if l%2 == 1 {
			continue
		}
		sign := float32(1)
		if (l/2-1)%2 == 1 {
			sign = -1
		}
		half := Factorial(l / 2)
		ratio := Factorial(l) / (float64(uint64(1)<<l) * half * half)
		out[l] = 2 * math32.Pi * sign / float32((l+2)*(l-1)) * float32(ratio)
	}
	return out
}

// LobeCoefficients returns the per-band convolution weights of the
// cosine-power lobe max(cosθ, 0)^exponent, projected with the samples.
// An exponent of 1 uses the closed form.
func LobeCoefficients(exponent float32, samples []Sample, bands int) []float32 {
	if exponent == 1 {
		return PhongLobeCoefficients(bands)
	}

	proj := ProjectScalar(func(theta, _ float32) float32 {
		c := math32.Cos(theta)
		if c < 0 {
			return 0
		}
		return math32.Pow(c, exponent)
	}, samples, bands)

	out := make([]float32, bands)
	for l := range out {
		out[l] = math32.Sqrt(4*math32.Pi/float32(2*l+1)) * proj[Index(l, 0)]
	}
	return out
}
