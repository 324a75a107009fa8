package scene

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// DefaultConeAngle is the half-angle of a Directional light when none is
// given.
const DefaultConeAngle = math32.Pi / 6

// Light is either Directional or Probe. Radiance is the light's incoming
// radiance from the direction (theta, phi).
type Light interface {
	Radiance(theta, phi float32) math.Vec3
	isLight()
}

// Directional is a cone of constant radiance around +Z. A cone of π/2 is a
// hemisphere light.
type Directional struct {
	ConeAngle float32
	Color     math.Vec3
}

// NewDirectional returns a white light with the default cone.
func NewDirectional() Directional {
	return Directional{ConeAngle: DefaultConeAngle, Color: math.Splat(1)}
}

// Radiance returns Color inside the cone and zero outside.
func (d Directional) Radiance(theta, _ float32) math.Vec3 {
	if theta < d.ConeAngle {
		return d.Color
	}
	return math.Vec3{}
}

// Probe is an HDR environment stored as a Size×Size angular map.
type Probe struct {
	Size int
	Data []math.Vec3
}

// Radiance looks up the texel the direction maps to in the angular map.
func (p Probe) Radiance(theta, phi float32) math.Vec3 {
	return p.Lookup(sh.FromSpherical(theta, phi))
}

// Lookup returns the texel of a unit direction. +Z maps to the centre of the
// map and -Z to its rim.
func (p Probe) Lookup(dir math.Vec3) math.Vec3 {
	if p.Size == 0 || len(p.Data) < p.Size*p.Size {
		return math.Vec3{}
	}

	var u, v float32
	switch d := math32.Sqrt(dir.X*dir.X + dir.Y*dir.Y); {
	case d > 0:
		r := math32.Acos(max(-1, min(dir.Z, 1))) / (math32.Pi * d)
		u, v = dir.X*r, dir.Y*r
	case dir.Z < 0:
		// Every rim point is -Z.
		u, v = 0, 1
	}

	x := p.texel(u)
	y := p.texel(v)
	return p.Data[x*p.Size+y]
}

func (p Probe) texel(coord float32) int {
	i := int((coord*0.5 + 0.5) * float32(p.Size))
	return max(0, min(i, p.Size-1))
}

func (Directional) isLight() {}
func (Probe) isLight()       {}

// LightName returns "directional" or "probe".
func LightName(l Light) string {
	switch l.(type) {
	case Directional:
		return "directional"
	case Probe:
		return "probe"
	default:
		return "unknown"
	}
}
