package sh

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

func nearf(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func TestIndexAndBand(t *testing.T) {
	i := 0
	for l := 0; l < MaxBands; l++ {
		for m := -l; m <= l; m++ {
			if got := Index(l, m); got != i {
				t.Fatalf("Index(%d, %d) = %d, want %d", l, m, got, i)
			}
			if got := Band(i); got != l {
				t.Fatalf("Band(%d) = %d, want %d", i, got, l)
			}
			i++
		}
	}
	if CoeffCount(5) != 25 {
		t.Errorf("CoeffCount(5) = %d, want 25", CoeffCount(5))
	}
}

func TestFactorial(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 1}, {1, 1}, {5, 120}, {10, 3628800}, {20, 2432902008176640000},
	}
	for _, tt := range tests {
		if got := Factorial(tt.n); got != tt.want {
			t.Errorf("Factorial(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestLegendreKnownValues(t *testing.T) {
	x := float32(0.3)
	s := math32.Sqrt(1 - x*x)
	tests := []struct {
		l, m int
		want float32
	}{
		{0, 0, 1},
		{1, 0, x},
		{1, 1, -s},
		{2, 0, 0.5 * (3*x*x - 1)},
		{2, 1, -3 * x * s},
		{2, 2, 3 * (1 - x*x)},
		{3, 0, 0.5 * (5*x*x*x - 3*x)},
		{3, 3, -15 * s * s * s},
	}
	for _, tt := range tests {
		if got := Legendre(tt.l, tt.m, x); !nearf(got, tt.want, 1e-5) {
			t.Errorf("Legendre(%d, %d, %v) = %v, want %v", tt.l, tt.m, x, got, tt.want)
		}
	}
}

func TestEvaluateLowBands(t *testing.T) {
	dir := math.Vec3{X: 0.48, Y: -0.6, Z: 0.64}
	theta, phi := ToSpherical(dir)

	c0 := 0.5 / math32.Sqrt(math32.Pi)
	c1 := math32.Sqrt(3 / (4 * math32.Pi))
	tests := []struct {
		l, m int
		want float32
	}{
		{0, 0, c0},
		{1, -1, -c1 * dir.Y},
		{1, 0, c1 * dir.Z},
		{1, 1, -c1 * dir.X},
	}
	for _, tt := range tests {
		if got := Evaluate(tt.l, tt.m, theta, phi); !nearf(got, tt.want, 1e-5) {
			t.Errorf("Evaluate(%d, %d) = %v, want %v", tt.l, tt.m, got, tt.want)
		}
	}
}

func TestToSpherical(t *testing.T) {
	dirs := []math.Vec3{
		{X: 1}, {Y: 1}, {X: -1}, {Y: -1},
		{X: 0.3, Y: -0.4, Z: 0.866},
		{X: -0.2, Y: -0.1, Z: -0.97},
	}
	for _, d := range dirs {
		theta, phi := ToSpherical(d)
		if phi < 0 || phi >= 2*math32.Pi {
			t.Errorf("phi %v out of range for %v", phi, d)
		}
		if back := FromSpherical(theta, phi); back.Sub(d.Normalize()).Length() > 1e-5 {
			t.Errorf("round trip of %v gave %v", d, back)
		}
	}

	for _, d := range []math.Vec3{{Z: 1}, {Z: -1}} {
		theta, phi := ToSpherical(d)
		if phi != 0 {
			t.Errorf("pole %v: phi = %v, want 0", d, phi)
		}
		if back := FromSpherical(theta, phi); back.Sub(d).Length() > 1e-5 {
			t.Errorf("pole %v round trip gave %v", d, back)
		}
	}
}

func TestGenerateSamples(t *testing.T) {
	samples := GenerateSamples(20, 4, rand.New(rand.NewSource(7)))
	if len(samples) != 400 {
		t.Fatalf("len(samples) = %d, want 400", len(samples))
	}

	var upper int
	for i, s := range samples {
		if !nearf(s.Direction.Length(), 1, 1e-5) {
			t.Errorf("sample %d direction not unit: %v", i, s.Direction)
		}
		if len(s.Coeffs) != 16 {
			t.Fatalf("sample %d has %d coefficients, want 16", i, len(s.Coeffs))
		}
		if s.Theta < 0 || s.Theta > math32.Pi || s.Phi < 0 || s.Phi >= 2*math32.Pi {
			t.Errorf("sample %d angles out of range: θ=%v φ=%v", i, s.Theta, s.Phi)
		}
		if s.Direction.Z > 0 {
			upper++
		}
	}
	// Equal-area strata put exactly half of the rows in each hemisphere.
	if upper != 200 {
		t.Errorf("%d samples in the upper hemisphere, want 200", upper)
	}
}

func TestGenerateSamplesDeterministic(t *testing.T) {
	a := GenerateSamples(8, 2, nil)
	b := GenerateSamples(8, 2, nil)
	for i := range a {
		if a[i].Direction != b[i].Direction {
			t.Fatal("nil rng should produce the same samples every time")
		}
	}
}

func TestBasisOrthonormal(t *testing.T) {
	const bands = 5
	samples := GenerateSamples(50, bands, rand.New(rand.NewSource(3)))
	n := CoeffCount(bands)
	weight := 4 * math32.Pi / float32(len(samples))

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float32
			for _, s := range samples {
				sum += s.Coeffs[i] * s.Coeffs[j]
			}
			sum *= weight

			want := float32(0)
			if i == j {
				want = 1
			}
			if !nearf(sum, want, 0.05) {
				t.Errorf("<Y%d, Y%d> = %v, want %v", i, j, sum, want)
			}
		}
	}
}
