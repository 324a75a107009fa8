package bake

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/geometry"
	"github.com/Faultbox/midgard-prt/pkg/math"
)

// directPass bakes the unshadowed transfer of a vertex range and records
// which samples were occluded.
func (b *Baker) directPass(s *scene.Scene, out []*Transfer, occlusion [][]*bitset.BitSet, task vertexTask) passStats {
	mesh := s.Meshes[task.Mesh]
	dst := out[task.Mesh]
	n := b.coeffCount

	var stats passStats
	for v := task.Start; v < task.End; v++ {
		p, normal := mesh.Positions[v], mesh.Normals[v]
		origin := p.Add(normal.Scale(b.opts.RayBias))
		vis := bitset.New(uint(len(b.samples)))
		coeffs := dst.Vertex(v)

		for si := range b.samples {
			smp := &b.samples[si]
			cosTheta := normal.Dot(smp.Direction)
			if cosTheta < 0 {
				continue
			}

			if s.Index.Intersects(geometry.Ray{Origin: origin, Direction: smp.Direction}) {
				vis.Set(uint(si))
				stats.Occluded++
				continue
			}

			switch mat := mesh.Material.(type) {
			case scene.Diffuse:
				weight := mat.Albedo.Scale(cosTheta)
				for c := 0; c < n; c++ {
					coeffs[c] = coeffs[c].Add(weight.Scale(smp.Coeffs[c]))
				}
			case scene.Glossy:
				for i := 0; i < n; i++ {
					row := coeffs[i*n : (i+1)*n]
					yi := smp.Coeffs[i]
					for j := 0; j < n; j++ {
						row[j] = row[j].Add(math.Splat(yi * smp.Coeffs[j]))
					}
				}
			}
		}
		occlusion[task.Mesh][v] = vis
	}
	return stats
}
