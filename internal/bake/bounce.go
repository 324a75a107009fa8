package bake

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/geometry"
	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// bounceScratch holds per-task buffers of a bounce pass.
type bounceScratch struct {
	interp  []math.Vec3 // interpolated transfer of the hit point
	basis   []float32   // basis at the reflected direction
	reflect []math.Vec3 // reflected transfer row
}

// bouncePass gathers one bounce of indirect transport for a vertex range:
// every occluded sample is traced and the previous pass's transfer at the
// hit point is carried back to the vertex.
func (b *Baker) bouncePass(s *scene.Scene, lobes [][]float32, prev, out []*Transfer, occlusion [][]*bitset.BitSet, task vertexTask) passStats {
	mesh := s.Meshes[task.Mesh]
	dst := out[task.Mesh]
	n := b.coeffCount

	scratch := bounceScratch{
		interp:  make([]math.Vec3, dst.CoeffCount),
		basis:   make([]float32, n),
		reflect: make([]math.Vec3, n),
	}

	var stats passStats
	for v := task.Start; v < task.End; v++ {
		p, normal := mesh.Positions[v], mesh.Normals[v]
		origin := p.Add(normal.Scale(b.opts.RayBias))
		coeffs := dst.Vertex(v)
		vis := occlusion[task.Mesh][v]

		for si, ok := vis.NextSet(0); ok; si, ok = vis.NextSet(si + 1) {
			smp := &b.samples[si]
			ray := geometry.Ray{Origin: origin, Direction: smp.Direction}
			hit, found := s.Index.Trace(ray)
			if !found {
				continue
			}
			stats.Occluded++

			hitMesh := s.MeshOf(hit.Triangle)
			if hitMesh == nil {
				continue
			}
			w0, w1, w2 := 1-hit.U-hit.V, hit.U, hit.V
			src := prev[hit.Triangle.Mesh]

			switch recv := mesh.Material.(type) {
			case scene.Diffuse:
				if _, ok := hitMesh.Material.(scene.Diffuse); !ok {
					stats.Skipped++
					continue
				}
				src.interpolate(hit.Triangle.Indices, w0, w1, w2, scratch.interp)
				weight := recv.Albedo.Scale(normal.Dot(smp.Direction) / math32.Pi)
				for c := 0; c < n; c++ {
					coeffs[c] = coeffs[c].Add(weight.Mul(scratch.interp[c]))
				}

			case scene.Glossy:
				if _, ok := hitMesh.Material.(scene.Glossy); !ok {
					stats.Skipped++
					continue
				}
				src.interpolate(hit.Triangle.Indices, w0, w1, w2, scratch.interp)

				hitNormal := hitMesh.InterpolatedNormal(hit.Triangle, w0, w1, w2)
				theta, phi := sh.ToSpherical(smp.Direction.Reflect(hitNormal))
				sh.EvaluateAll(theta, phi, b.opts.Bands, scratch.basis)
				lobe := lobes[hit.Triangle.Mesh]

				// reflect[j] = Σk Yr[k]·lobe[band(k)]·interp[k][j]
				for j := range scratch.reflect {
					scratch.reflect[j] = math.Vec3{}
				}
				for k := 0; k < n; k++ {
					wk := scratch.basis[k] * lobe[sh.Band(k)]
					if wk == 0 {
						continue
					}
					row := scratch.interp[k*n : (k+1)*n]
					for j := 0; j < n; j++ {
						scratch.reflect[j] = scratch.reflect[j].Add(row[j].Scale(wk))
					}
				}

				for i := 0; i < n; i++ {
					yi := smp.Coeffs[i]
					dstRow := coeffs[i*n : (i+1)*n]
					for j := 0; j < n; j++ {
						dstRow[j] = dstRow[j].Add(scratch.reflect[j].Scale(yi))
					}
				}
			}
			stats.Traced++
		}
	}
	return stats
}
