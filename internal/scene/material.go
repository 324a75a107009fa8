// Package scene holds the static input of a bake: meshes with their
// materials, lights, and the spatial index over all triangles.
package scene

import "github.com/Faultbox/midgard-prt/pkg/math"

// Material is either Diffuse or Glossy.
type Material interface {
	isMaterial()
}

// Diffuse is a Lambertian surface. Baking produces a transfer vector.
type Diffuse struct {
	Albedo math.Vec3
}

// Glossy is a cosine-power specular surface. Baking produces a transfer
// matrix; the lobe is applied at runtime.
type Glossy struct {
	Exponent float32
}

func (Diffuse) isMaterial() {}
func (Glossy) isMaterial()  {}

// MaterialName returns "diffuse" or "glossy".
func MaterialName(m Material) string {
	switch m.(type) {
	case Diffuse:
		return "diffuse"
	case Glossy:
		return "glossy"
	default:
		return "unknown"
	}
}
