package scene

import (
	"github.com/Faultbox/midgard-prt/pkg/geometry"
	"github.com/Faultbox/midgard-prt/pkg/kdtree"
)

// Scene is the immutable input of a bake.
type Scene struct {
	Meshes []*Mesh
	Lights []Light
	Index  *kdtree.Tree
}

// New builds the triangles of every mesh and the spatial index over them.
// Meshes must not be modified afterwards.
func New(meshes []*Mesh, lights []Light, terminationSize int) *Scene {
	var tris []*geometry.Triangle
	for i, m := range meshes {
		m.buildTriangles(i)
		for t := range m.Triangles {
			tris = append(tris, &m.Triangles[t])
		}
	}

	return &Scene{
		Meshes: meshes,
		Lights: lights,
		Index:  kdtree.Build(tris, terminationSize),
	}
}

// VertexCount returns the total number of vertices across all meshes.
func (s *Scene) VertexCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += m.VertexCount()
	}
	return n
}

// TriangleCount returns the total number of triangles across all meshes.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += m.TriangleCount()
	}
	return n
}

// MeshOf returns the mesh a triangle belongs to, or nil.
func (s *Scene) MeshOf(tri *geometry.Triangle) *Mesh {
	if tri == nil || tri.Mesh < 0 || tri.Mesh >= len(s.Meshes) {
		return nil
	}
	return s.Meshes[tri.Mesh]
}
