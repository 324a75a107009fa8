package kdtree

import (
	"github.com/Faultbox/midgard-prt/pkg/geometry"
)

// Hit describes the nearest intersection found by Trace. The hit point is
// (1-U-V)*V0 + U*V1 + V*V2 of Triangle.
type Hit struct {
	Distance float32
	U, V     float32
	Triangle *geometry.Triangle
}

// Intersects reports whether the ray hits any triangle in the tree.
func (t *Tree) Intersects(ray geometry.Ray) bool {
	return intersects(t.Root, ray)
}

func intersects(n *Node, ray geometry.Ray) bool {
	if n == nil || !ray.IntersectsAABB(n.Box) {
		return false
	}
	if !n.IsLeaf() {
		return intersects(n.Left, ray) || intersects(n.Right, ray)
	}
	for _, tri := range n.Triangles {
		if ray.IntersectsTriangle(tri) {
			return true
		}
	}
	return false
}

// Trace returns the nearest triangle hit by the ray.
func (t *Tree) Trace(ray geometry.Ray) (Hit, bool) {
	var best Hit
	found := trace(t.Root, ray, &best)
	return best, found
}

func trace(n *Node, ray geometry.Ray, best *Hit) bool {
	if n == nil || !ray.IntersectsAABB(n.Box) {
		return false
	}
	if !n.IsLeaf() {
		hitLeft := trace(n.Left, ray, best)
		hitRight := trace(n.Right, ray, best)
		return hitLeft || hitRight
	}

	found := false
	for _, tri := range n.Triangles {
		dist, u, v, ok := ray.TraceTriangle(tri)
		if !ok {
			continue
		}
		if best.Triangle == nil || dist < best.Distance {
			*best = Hit{Distance: dist, U: u, V: v, Triangle: tri}
			found = true
		}
	}
	return found
}
