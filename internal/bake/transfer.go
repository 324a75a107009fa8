package bake

import (
	"github.com/Faultbox/midgard-prt/pkg/math"
)

// Kind tells whether a transfer holds a vector or a matrix per vertex.
type Kind int

const (
	// KindVector is the per-vertex RGB coefficient vector of a diffuse mesh.
	KindVector Kind = iota
	// KindMatrix is the per-vertex transfer matrix of a glossy mesh.
	KindMatrix
)

// String returns the cache file suffix of the kind.
func (k Kind) String() string {
	if k == KindMatrix {
		return "glossy"
	}
	return "diffuse"
}

// Transfer is the baked result for one mesh. Coeffs holds CoeffCount
// values per vertex; matrix entry (i, j) of vertex v is at (v*C+i)*C+j
// where C*C == CoeffCount.
type Transfer struct {
	Mesh       string
	Kind       Kind
	CoeffCount int
	Coeffs     []math.Vec3
}

func newTransfer(mesh string, kind Kind, coeffCount, vertexCount int) *Transfer {
	return &Transfer{
		Mesh:       mesh,
		Kind:       kind,
		CoeffCount: coeffCount,
		Coeffs:     make([]math.Vec3, coeffCount*vertexCount),
	}
}

// VertexCount returns the number of vertices the transfer covers.
func (t *Transfer) VertexCount() int {
	if t.CoeffCount == 0 {
		return 0
	}
	return len(t.Coeffs) / t.CoeffCount
}

// Vertex returns the coefficients of vertex v.
func (t *Transfer) Vertex(v int) []math.Vec3 {
	return t.Coeffs[v*t.CoeffCount : (v+1)*t.CoeffCount]
}

// Radiance returns the exit radiance of a diffuse vertex under the light
// coefficients. It is the runtime shading dot product.
func (t *Transfer) Radiance(v int, light []math.Vec3) math.Vec3 {
	coeffs := t.Vertex(v)
	var sum math.Vec3
	for c := 0; c < min(len(coeffs), len(light)); c++ {
		sum = sum.Add(coeffs[c].Mul(light[c]))
	}
	return sum
}

func (t *Transfer) scale(s float32) {
	for i := range t.Coeffs {
		t.Coeffs[i] = t.Coeffs[i].Scale(s)
	}
}

func (t *Transfer) accumulate(other *Transfer) {
	for i := range t.Coeffs {
		t.Coeffs[i] = t.Coeffs[i].Add(other.Coeffs[i])
	}
}

// interpolate writes the barycentric blend of three vertices' coefficients
// into out.
func (t *Transfer) interpolate(idx [3]int, w0, w1, w2 float32, out []math.Vec3) {
	a, b, c := t.Vertex(idx[0]), t.Vertex(idx[1]), t.Vertex(idx[2])
	for i := range out {
		out[i] = math.Barycentric(a[i], b[i], c[i], w0, w1, w2)
	}
}
