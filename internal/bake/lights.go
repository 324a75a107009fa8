package bake

import (
	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// ProjectLights projects the radiance of every light into SH coefficients.
func ProjectLights(lights []scene.Light, samples []sh.Sample, bands int) [][]math.Vec3 {
	out := make([][]math.Vec3, len(lights))
	for i, l := range lights {
		out[i] = sh.Project(l.Radiance, samples, bands)
	}
	return out
}

// glossyLobes returns the lobe convolution weights of every glossy mesh,
// indexed like the scene's meshes. Diffuse meshes get nil.
func glossyLobes(meshes []*scene.Mesh, samples []sh.Sample, bands int) [][]float32 {
	lobes := make([][]float32, len(meshes))
	for i, m := range meshes {
		if g, ok := m.Material.(scene.Glossy); ok {
			lobes[i] = sh.LobeCoefficients(g.Exponent, samples, bands)
		}
	}
	return lobes
}
