package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-prt/pkg/geometry"
	"github.com/Faultbox/midgard-prt/pkg/math"
)

// ErrInvalidMesh is returned for inconsistent vertex or index arrays.
var ErrInvalidMesh = errors.New("invalid mesh")

// Mesh is an indexed triangle mesh with per-vertex normals.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []uint32
	Material  Material

	// Triangles is filled when the mesh is added to a scene.
	Triangles []geometry.Triangle
}

// NewMesh validates the arrays and creates a mesh. Normals are normalised.
func NewMesh(name string, positions, normals []math.Vec3, indices []uint32, material Material) (*Mesh, error) {
	if len(positions) != len(normals) {
		return nil, fmt.Errorf("%w: %s has %d positions and %d normals", ErrInvalidMesh, name, len(positions), len(normals))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %s index count %d is not a multiple of 3", ErrInvalidMesh, name, len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(positions) {
			return nil, fmt.Errorf("%w: %s index %d refers to vertex %d of %d", ErrInvalidMesh, name, i, idx, len(positions))
		}
	}
	if material == nil {
		return nil, fmt.Errorf("%w: %s has no material", ErrInvalidMesh, name)
	}

	n := make([]math.Vec3, len(normals))
	for i, v := range normals {
		n[i] = v.Normalize()
	}

	return &Mesh{
		Name:      name,
		Positions: positions,
		Normals:   n,
		Indices:   indices,
		Material:  material,
	}, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Transform applies the matrix to positions and normals in place.
func (m *Mesh) Transform(mat math.Mat4) {
	for i := range m.Positions {
		m.Positions[i] = mat.TransformPoint(m.Positions[i])
		m.Normals[i] = mat.TransformNormal(m.Normals[i])
	}
}

// InterpolatedNormal returns the barycentric blend of the triangle's vertex
// normals, normalised.
func (m *Mesh) InterpolatedNormal(tri *geometry.Triangle, w0, w1, w2 float32) math.Vec3 {
	return math.Barycentric(
		m.Normals[tri.Indices[0]],
		m.Normals[tri.Indices[1]],
		m.Normals[tri.Indices[2]],
		w0, w1, w2,
	).Normalize()
}

func (m *Mesh) buildTriangles(meshIndex int) {
	m.Triangles = make([]geometry.Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		idx := [3]int{int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])}
		m.Triangles = append(m.Triangles, geometry.NewMeshTriangle(
			m.Positions[idx[0]], m.Positions[idx[1]], m.Positions[idx[2]],
			idx, meshIndex,
		))
	}
}
