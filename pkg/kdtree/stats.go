package kdtree

// Stats summarises the shape of a tree.
type Stats struct {
	Nodes     int
	Leaves    int
	MaxDepth  int
	Triangles int // triangle references held by leaves
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	walk(t.Root, 0, fn)
}

func walk(n *Node, depth int, fn func(n *Node, depth int)) {
	if n == nil {
		return
	}
	fn(n, depth)
	walk(n.Left, depth+1, fn)
	walk(n.Right, depth+1, fn)
}

// Stats collects node counts and depth.
func (t *Tree) Stats() Stats {
	var s Stats
	t.Walk(func(n *Node, depth int) {
		s.Nodes++
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if n.IsLeaf() {
			s.Leaves++
			s.Triangles += len(n.Triangles)
		}
	})
	return s
}
