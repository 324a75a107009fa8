// Package sh implements real spherical harmonics: basis evaluation, sphere
// sampling, Monte-Carlo projection of directional functions and rotation of
// coefficient vectors.
//
// Coefficients are stored band by band; (l, m) lives at Index(l, m).
// The associated Legendre polynomials include the Condon–Shortley phase.
package sh

import (
	"fmt"
	stdmath "math"
	"sync"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// MaxBands is the largest supported band count. The normalisation constants
// need (2l)!, and the factorial table stops at 33!.
const MaxBands = 17

const sphericalEpsilon = 1e-6

var (
	tablesOnce sync.Once
	factorials [34]float64
	norms      [MaxBands][MaxBands]float32 // K(l, m) for 0 <= m <= l
)

func initTables() {
	tablesOnce.Do(func() {
		factorials[0] = 1
		for i := 1; i < len(factorials); i++ {
			factorials[i] = factorials[i-1] * float64(i)
		}
		for l := 0; l < MaxBands; l++ {
			for m := 0; m <= l; m++ {
				k := float64(2*l+1) * factorials[l-m] / (4 * stdmath.Pi * factorials[l+m])
				norms[l][m] = float32(stdmath.Sqrt(k))
			}
		}
	})
}

func checkBands(bands int) {
	if bands < 1 || bands > MaxBands {
		panic(fmt.Sprintf("sh: band count %d out of range [1, %d]", bands, MaxBands))
	}
}

// Index returns the position of coefficient (l, m) in a coefficient vector.
func Index(l, m int) int {
	return l*(l+1) + m
}

// CoeffCount returns the number of coefficients for the given band count.
func CoeffCount(bands int) int {
	return bands * bands
}

// Band returns the band l of a coefficient index.
func Band(index int) int {
	l := int(stdmath.Sqrt(float64(index)))
	// guard against rounding just below a perfect square
	for (l+1)*(l+1) <= index {
		l++
	}
	return l
}

// Factorial returns n! for 0 <= n <= 33.
func Factorial(n int) float64 {
	initTables()
	return factorials[n]
}

// Legendre evaluates the associated Legendre polynomial P(l, m) at x for
// 0 <= m <= l.
func Legendre(l, m int, x float32) float32 {
	pmm := float32(1)
	if m > 0 {
		somx2 := math32.Sqrt((1 - x) * (1 + x))
		fact := float32(1)
		for i := 1; i <= m; i++ {
			pmm *= -fact * somx2
			fact += 2
		}
	}
	if l == m {
		return pmm
	}

	pmmp1 := x * float32(2*m+1) * pmm
	if l == m+1 {
		return pmmp1
	}

	var pll float32
	for ll := m + 2; ll <= l; ll++ {
		pll = (float32(2*ll-1)*x*pmmp1 - float32(ll+m-1)*pmm) / float32(ll-m)
		pmm = pmmp1
		pmmp1 = pll
	}
	return pll
}

// Evaluate returns the real SH basis function Y(l, m) at spherical angles
// (theta, phi), with theta measured from +Z.
func Evaluate(l, m int, theta, phi float32) float32 {
	initTables()
	cosTheta := math32.Cos(theta)
	switch {
	case m == 0:
		return norms[l][0] * Legendre(l, 0, cosTheta)
	case m > 0:
		return math32.Sqrt2 * norms[l][m] * math32.Cos(float32(m)*phi) * Legendre(l, m, cosTheta)
	default:
		return math32.Sqrt2 * norms[l][-m] * math32.Sin(float32(-m)*phi) * Legendre(l, -m, cosTheta)
	}
}

// EvaluateAll fills out with every basis function of the first bands bands
// and returns it. A nil or short out is reallocated.
func EvaluateAll(theta, phi float32, bands int, out []float32) []float32 {
	n := CoeffCount(bands)
	if len(out) < n {
		out = make([]float32, n)
	}
	for l := 0; l < bands; l++ {
		for m := -l; m <= l; m++ {
			out[Index(l, m)] = Evaluate(l, m, theta, phi)
		}
	}
	return out[:n]
}

// ToSpherical converts a direction to (theta, phi), theta in [0, π] from +Z
// and phi in [0, 2π). Directions along the Z axis have phi = 0.
func ToSpherical(dir math.Vec3) (theta, phi float32) {
	d := dir.Normalize()
	theta = math32.Acos(clamp(d.Z, -1, 1))
	if math32.Sin(theta) < sphericalEpsilon {
		return theta, 0
	}
	phi = math32.Atan2(d.Y, d.X)
	if phi < 0 {
		phi += 2 * math32.Pi
	}
	return theta, phi
}

// FromSpherical returns the unit direction for (theta, phi).
func FromSpherical(theta, phi float32) math.Vec3 {
	sinTheta := math32.Sin(theta)
	return math.Vec3{
		X: sinTheta * math32.Cos(phi),
		Y: sinTheta * math32.Sin(phi),
		Z: math32.Cos(theta),
	}
}

func clamp(x, lo, hi float32) float32 {
	return max(lo, min(x, hi))
}
