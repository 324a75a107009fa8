package sh

import (
	"errors"
	stdmath "math"
	"unsafe"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

var (
	// ErrAliasedBuffers is returned when input and output coefficients overlap.
	ErrAliasedBuffers = errors.New("sh: rotation input and output overlap")

	// ErrCoeffCount is returned when a buffer is shorter than the rotator's
	// coefficient count.
	ErrCoeffCount = errors.New("sh: coefficient buffer too short")
)

type uvw struct {
	u, v, w float64
}

// Rotator rotates SH coefficient vectors band by band with Ivanic's
// recurrence. The recurrence weights depend only on the band count and are
// computed once. A Rotator is safe for concurrent use.
type Rotator struct {
	bands   int
	weights [][]uvw // weights[l] holds (2l+1)² entries, see bandMatrix
}

// NewRotator precomputes the recurrence weights for the band count.
func NewRotator(bands int) *Rotator {
	checkBands(bands)
	r := &Rotator{bands: bands, weights: make([][]uvw, bands)}
	for l := 1; l < bands; l++ {
		size := 2*l + 1
		r.weights[l] = make([]uvw, size*size)
		for m := -l; m <= l; m++ {
			for n := -l; n <= l; n++ {
				r.weights[l][(m+l)*size+n+l] = computeUVW(l, m, n)
			}
		}
	}
	return r
}

func computeUVW(l, m, n int) uvw {
	d := 0.0
	if m == 0 {
		d = 1
	}
	absM := abs(m)

	var denom float64
	if abs(n) == l {
		denom = float64(2*l) * float64(2*l-1)
	} else {
		denom = float64(l+n) * float64(l-n)
	}

	return uvw{
		u: stdmath.Sqrt(float64(l+m) * float64(l-m) / denom),
		v: 0.5 * stdmath.Sqrt((1+d)*float64(l+absM-1)*float64(l+absM)/denom) * (1 - 2*d),
		w: -0.5 * stdmath.Sqrt(float64(l-absM-1)*float64(l-absM)/denom) * (1 - d),
	}
}

// Bands returns the number of bands the rotator handles.
func (r *Rotator) Bands() int {
	return r.bands
}

// Rotate returns the coefficients of the function rotated by q. in must hold
// at least CoeffCount(r.Bands()) coefficients; extra coefficients are copied
// unchanged. It panics on a short input.
func (r *Rotator) Rotate(q math.Quat, in []math.Vec3) []math.Vec3 {
	out := make([]math.Vec3, len(in))
	if err := r.RotateInto(q, in, out); err != nil {
		panic(err)
	}
	return out
}

// RotateInto writes the rotated coefficients of in to out. The buffers must
// not overlap.
func (r *Rotator) RotateInto(q math.Quat, in, out []math.Vec3) error {
	n := CoeffCount(r.bands)
	if len(in) < n || len(out) < len(in) {
		return ErrCoeffCount
	}
	if overlaps(in, out) {
		return ErrAliasedBuffers
	}

	copy(out[n:], in[n:len(in)])
	out[0] = in[0]
	if r.bands == 1 {
		return nil
	}

	base := newBaseRotation(q.Normalize().ToMat3())
	prev := bandMatrix{l: 0, data: []float64{1}}
	for l := 1; l < r.bands; l++ {
		cur := r.bandMatrix(l, &base, &prev)
		cur.apply(in, out)
		prev = cur
	}
	return nil
}

// bandMatrix is a (2l+1)×(2l+1) matrix addressed by m, n in [-l, l].
type bandMatrix struct {
	l    int
	data []float64
}

func (b *bandMatrix) at(m, n int) float64 {
	return b.data[(m+b.l)*(2*b.l+1)+n+b.l]
}

func (b *bandMatrix) set(m, n int, v float64) {
	b.data[(m+b.l)*(2*b.l+1)+n+b.l] = v
}

// apply multiplies band l of in by the matrix into band l of out.
func (b *bandMatrix) apply(in, out []math.Vec3) {
	l := b.l
	for m := -l; m <= l; m++ {
		var x, y, z float64
		for n := -l; n <= l; n++ {
			c := in[Index(l, n)]
			k := b.at(m, n)
			x += k * float64(c.X)
			y += k * float64(c.Y)
			z += k * float64(c.Z)
		}
		out[Index(l, m)] = math.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
	}
}

// baseRotation is the band 1 rotation matrix: the 3×3 rotation with rows and
// columns reordered to (y, z, x) for m = -1, 0, 1. Entries with odd i+j are
// negated because the basis carries the Condon–Shortley phase.
type baseRotation [3][3]float64

func newBaseRotation(rot math.Mat3) baseRotation {
	axis := [3]int{1, 2, 0}
	var b baseRotation
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			v := float64(rot.At(axis[i+1], axis[j+1]))
			if (i+j)%2 != 0 {
				v = -v
			}
			b[i+1][j+1] = v
		}
	}
	return b
}

func (b *baseRotation) at(i, j int) float64 {
	return b[i+1][j+1]
}

func (r *Rotator) bandMatrix(l int, base *baseRotation, prev *bandMatrix) bandMatrix {
	size := 2*l + 1
	cur := bandMatrix{l: l, data: make([]float64, size*size)}
	if l == 1 {
		for i := -1; i <= 1; i++ {
			for j := -1; j <= 1; j++ {
				cur.set(i, j, base.at(i, j))
			}
		}
		return cur
	}

	weights := r.weights[l]
	for m := -l; m <= l; m++ {
		for n := -l; n <= l; n++ {
			wt := weights[(m+l)*size+n+l]

			// Zero-weight terms would index outside the previous band.
			var sum float64
			if wt.u != 0 {
				sum += wt.u * termU(base, prev, l, m, n)
			}
			if wt.v != 0 {
				sum += wt.v * termV(base, prev, l, m, n)
			}
			if wt.w != 0 {
				sum += wt.w * termW(base, prev, l, m, n)
			}
			cur.set(m, n, sum)
		}
	}
	return cur
}

func termP(base *baseRotation, prev *bandMatrix, i, a, b, l int) float64 {
	switch b {
	case l:
		return base.at(i, 1)*prev.at(a, l-1) - base.at(i, -1)*prev.at(a, -l+1)
	case -l:
		return base.at(i, 1)*prev.at(a, -l+1) + base.at(i, -1)*prev.at(a, l-1)
	default:
		return base.at(i, 0) * prev.at(a, b)
	}
}

func termU(base *baseRotation, prev *bandMatrix, l, m, n int) float64 {
	return termP(base, prev, 0, m, n, l)
}

func termV(base *baseRotation, prev *bandMatrix, l, m, n int) float64 {
	switch {
	case m == 0:
		return termP(base, prev, 1, 1, n, l) + termP(base, prev, -1, -1, n, l)
	case m > 0:
		p0 := termP(base, prev, 1, m-1, n, l)
		if m == 1 {
			return p0 * stdmath.Sqrt2
		}
		return p0 - termP(base, prev, -1, -m+1, n, l)
	default:
		p1 := termP(base, prev, -1, -m-1, n, l)
		if m == -1 {
			return p1 * stdmath.Sqrt2
		}
		return termP(base, prev, 1, m+1, n, l) + p1
	}
}

func termW(base *baseRotation, prev *bandMatrix, l, m, n int) float64 {
	if m > 0 {
		return termP(base, prev, 1, m+1, n, l) + termP(base, prev, -1, -m-1, n, l)
	}
	return termP(base, prev, 1, m-1, n, l) - termP(base, prev, -1, -m+1, n, l)
}

func overlaps(a, b []math.Vec3) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	size := unsafe.Sizeof(a[0])
	aStart := uintptr(unsafe.Pointer(unsafe.SliceData(a)))
	bStart := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	aEnd := aStart + uintptr(len(a))*size
	bEnd := bStart + uintptr(len(b))*size
	return aStart < bEnd && bStart < aEnd
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
