package geometry

import "github.com/Faultbox/midgard-prt/pkg/math"

// Plane is the set of points p with Normal·p + Distance = 0.
type Plane struct {
	Normal   math.Vec3
	Distance float32
}

// PlaneFromPoints returns the plane through a, b and c. The normal follows
// the right-hand rule of the winding a -> b -> c.
func PlaneFromPoints(a, b, c math.Vec3) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return Plane{Normal: n, Distance: -n.Dot(a)}
}

// SignedDistance returns the signed distance of p from the plane.
func (p Plane) SignedDistance(point math.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Triangle is an immutable scene triangle with its supporting plane.
type Triangle struct {
	Plane    Plane
	Vertices [3]math.Vec3

	// Indices into the owning mesh's vertex arrays, and the owning mesh's
	// position in the scene. Both are -1 for free-standing triangles.
	Indices [3]int
	Mesh    int
}

// NewTriangle creates a free-standing triangle.
func NewTriangle(v0, v1, v2 math.Vec3) Triangle {
	return NewMeshTriangle(v0, v1, v2, [3]int{-1, -1, -1}, -1)
}

// NewMeshTriangle creates a triangle that refers back to its mesh vertices.
func NewMeshTriangle(v0, v1, v2 math.Vec3, indices [3]int, mesh int) Triangle {
	return Triangle{
		Plane:    PlaneFromPoints(v0, v1, v2),
		Vertices: [3]math.Vec3{v0, v1, v2},
		Indices:  indices,
		Mesh:     mesh,
	}
}

// AABB returns the componentwise bounds of the three vertices.
func (t *Triangle) AABB() AABB {
	return AABB{
		Min: t.Vertices[0].Min(t.Vertices[1]).Min(t.Vertices[2]),
		Max: t.Vertices[0].Max(t.Vertices[1]).Max(t.Vertices[2]),
	}
}

// Centroid returns the average of the three vertices.
func (t *Triangle) Centroid() math.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Scale(1.0 / 3.0)
}
