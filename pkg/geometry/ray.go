package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

const (
	// Epsilon is the minimum ray parameter accepted as a hit, so rays leaving
	// a surface do not report that surface.
	Epsilon = 0.001

	// ParallelEpsilon bounds the Möller–Trumbore determinant below which a
	// ray is treated as parallel to the triangle.
	ParallelEpsilon = 1e-8
)

// Ray is a half-line Origin + t*Direction, t > 0.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at parameter t.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// IntersectsTriangle reports whether the ray hits the triangle.
func (r Ray) IntersectsTriangle(tri *Triangle) bool {
	_, _, _, ok := r.TraceTriangle(tri)
	return ok
}

// TraceTriangle intersects the ray with the triangle using the Möller–Trumbore
// algorithm. It returns the ray parameter and the barycentric coordinates
// (u, v) of the hit; the hit point is (1-u-v)*V0 + u*V1 + v*V2.
func (r Ray) TraceTriangle(tri *Triangle) (t, u, v float32, ok bool) {
	v0 := tri.Vertices[0]
	edge1 := tri.Vertices[1].Sub(v0)
	edge2 := tri.Vertices[2].Sub(v0)

	h := r.Direction.Cross(edge2)
	det := edge1.Dot(h)

	// Ray lies in, or runs parallel to, the triangle's plane
	if det > -ParallelEpsilon && det < ParallelEpsilon {
		return 0, 0, 0, false
	}

	f := 1 / det
	s := r.Origin.Sub(v0)
	u = f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v = f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = f * edge2.Dot(q)
	if t <= Epsilon {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// IntersectsAABB tests the ray against the box with the slab method.
// Axis-parallel rays produce infinite inverse components; the resulting
// ±Inf (and NaN, for origins exactly on a slab) are absorbed by the
// comparisons below.
func (r Ray) IntersectsAABB(box AABB) bool {
	if box.IsEmpty() {
		return false
	}
	tMin, tMax := r.slabs(box)
	return tMax >= 0 && tMin <= tMax
}

func (r Ray) slabs(box AABB) (tMin, tMax float32) {
	invDir := math.Vec3{X: 1 / r.Direction.X, Y: 1 / r.Direction.Y, Z: 1 / r.Direction.Z}

	t1 := box.Min.Sub(r.Origin).Mul(invDir)
	t2 := box.Max.Sub(r.Origin).Mul(invDir)

	tMin = math32.Inf(-1)
	tMax = math32.Inf(1)
	for axis := 0; axis < 3; axis++ {
		near, far := t1.Axis(axis), t2.Axis(axis)
		if near > far {
			near, far = far, near
		}
		if near > tMin {
			tMin = near
		}
		if far < tMax {
			tMax = far
		}
	}
	return tMin, tMax
}
