// Package kdtree implements a binary space-partitioning tree over triangles,
// split at the mean centroid of the longest axis, for occlusion and
// nearest-hit ray queries.
package kdtree

import (
	"github.com/Faultbox/midgard-prt/pkg/geometry"
)

// DefaultTerminationSize is the leaf size below which nodes stop splitting.
const DefaultTerminationSize = 2

// Node is a tree node. Internal nodes have both children and no triangles;
// leaves have no children. Box bounds everything beneath the node.
type Node struct {
	Box       geometry.AABB
	Left      *Node
	Right     *Node
	Triangles []*geometry.Triangle
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// Tree is an immutable triangle hierarchy. Queries are safe for concurrent
// use.
type Tree struct {
	Root            *Node
	TerminationSize int
}

// Build constructs a tree over the triangles. The input slice is not
// reordered; the tree keeps non-owning references to its triangles.
func Build(triangles []*geometry.Triangle, terminationSize int) *Tree {
	if terminationSize < 1 {
		terminationSize = DefaultTerminationSize
	}
	tris := make([]*geometry.Triangle, len(triangles))
	copy(tris, triangles)

	return &Tree{
		Root:            build(tris, terminationSize),
		TerminationSize: terminationSize,
	}
}

func build(tris []*geometry.Triangle, terminationSize int) *Node {
	node := &Node{Box: geometry.EmptyAABB()}

	switch len(tris) {
	case 0:
		return node
	case 1:
		node.Box = tris[0].AABB()
		node.Triangles = tris
		return node
	}

	var mid float32
	for _, tri := range tris {
		node.Box.Expand(tri.AABB())
	}
	if len(tris) <= terminationSize {
		node.Triangles = tris
		return node
	}

	axis := node.Box.LongestAxis()
	for _, tri := range tris {
		mid += tri.Centroid().Axis(axis)
	}
	mid /= float32(len(tris))

	var left, right []*geometry.Triangle
	for _, tri := range tris {
		if tri.Centroid().Axis(axis) < mid {
			left = append(left, tri)
		} else {
			right = append(right, tri)
		}
	}

	// All centroids on one side: splitting again would never terminate
	if len(left) == 0 || len(right) == 0 {
		node.Triangles = tris
		return node
	}

	node.Left = build(left, terminationSize)
	node.Right = build(right, terminationSize)
	return node
}
