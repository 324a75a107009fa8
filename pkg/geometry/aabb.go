// Package geometry provides the primitives used for visibility queries:
// axis-aligned boxes, planes, triangles and rays.
package geometry

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// EmptyAABB returns a box with inverted infinite bounds. Expanding it by any
// box yields that box.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: math.Splat(inf),
		Max: math.Splat(-inf),
	}
}

// NewAABB creates an AABB from two corners, handling swapped components.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// Expand grows the box to also enclose other.
func (b *AABB) Expand(other AABB) {
	b.Min = b.Min.Min(other.Min)
	b.Max = b.Max.Max(other.Max)
}

// IsEmpty reports whether the box has never been expanded.
func (b AABB) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Contains reports whether other lies entirely inside b.
// An empty box is contained by every box.
func (b AABB) Contains(other AABB) bool {
	if other.IsEmpty() {
		return true
	}
	return b.Min.X <= other.Min.X && b.Min.Y <= other.Min.Y && b.Min.Z <= other.Min.Z &&
		b.Max.X >= other.Max.X && b.Max.Y >= other.Max.Y && b.Max.Z >= other.Max.Z
}

// Extent returns the size of the box along each axis.
func (b AABB) Extent() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the largest extent.
// Y only wins over X when strictly larger, Z only when strictly larger than
// the current winner.
func (b AABB) LongestAxis() int {
	size := b.Extent()
	if size.Y > size.X {
		if size.Z > size.Y {
			return 2
		}
		return 1
	}
	if size.Z > size.X {
		return 2
	}
	return 0
}
