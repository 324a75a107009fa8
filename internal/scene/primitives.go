package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// Shape is generated geometry ready for NewMesh. Triangles wind
// counter-clockwise seen from the side the normals point to.
type Shape struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []uint32
}

// Plane returns a size×size square in the XY plane centred on the origin,
// facing +Z, split into segments×segments quads.
func Plane(size float32, segments int) Shape {
	segments = max(segments, 1)
	var s Shape
	row := segments + 1
	for j := 0; j <= segments; j++ {
		for i := 0; i <= segments; i++ {
			s.Positions = append(s.Positions, math.Vec3{
				X: size * (float32(i)/float32(segments) - 0.5),
				Y: size * (float32(j)/float32(segments) - 0.5),
			})
			s.Normals = append(s.Normals, math.Vec3{Z: 1})
		}
	}
	for j := 0; j < segments; j++ {
		for i := 0; i < segments; i++ {
			a := uint32(j*row + i)
			b := a + 1
			c := a + uint32(row) + 1
			d := a + uint32(row)
			s.Indices = append(s.Indices, a, b, c, a, c, d)
		}
	}
	return s
}

// Sphere returns a UV sphere of the given radius centred on the origin with
// outward normals. Poles lie on the Z axis.
func Sphere(radius float32, rings, segments int) Shape {
	rings = max(rings, 2)
	segments = max(segments, 3)
	var s Shape
	row := segments + 1
	for r := 0; r <= rings; r++ {
		theta := math32.Pi * float32(r) / float32(rings)
		for i := 0; i <= segments; i++ {
			phi := 2 * math32.Pi * float32(i) / float32(segments)
			n := sh.FromSpherical(theta, phi)
			s.Positions = append(s.Positions, n.Scale(radius))
			s.Normals = append(s.Normals, n)
		}
	}
	for r := 0; r < rings; r++ {
		for i := 0; i < segments; i++ {
			a := uint32(r*row + i)
			b := a + uint32(row)
			c := b + 1
			d := a + 1
			// The first and last rings collapse to a point.
			if r != rings-1 {
				s.Indices = append(s.Indices, a, b, c)
			}
			if r != 0 {
				s.Indices = append(s.Indices, a, c, d)
			}
		}
	}
	return s
}

// boxFaces lists each face normal with two tangents whose cross product is
// the normal.
var boxFaces = [6][3]math.Vec3{
	{{X: 1}, {Y: 1}, {Z: 1}},
	{{X: -1}, {Z: 1}, {Y: 1}},
	{{Y: 1}, {Z: 1}, {X: 1}},
	{{Y: -1}, {X: 1}, {Z: 1}},
	{{Z: 1}, {X: 1}, {Y: 1}},
	{{Z: -1}, {Y: 1}, {X: 1}},
}

// Box returns an axis-aligned box with the given edge lengths centred on the
// origin. Each face has its own four vertices so normals stay flat.
func Box(extents math.Vec3) Shape {
	half := extents.Scale(0.5)
	var s Shape
	for _, f := range boxFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(s.Positions))
		for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := n.Add(u.Scale(corner[0])).Add(v.Scale(corner[1]))
			s.Positions = append(s.Positions, p.Mul(half))
			s.Normals = append(s.Normals, n)
		}
		s.Indices = append(s.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return s
}
