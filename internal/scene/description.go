package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-prt/pkg/formats"
	"github.com/Faultbox/midgard-prt/pkg/math"
)

// Scene description errors.
var (
	ErrUnknownShape    = errors.New("unknown shape")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownLight    = errors.New("unknown light")
	ErrDuplicateMesh   = errors.New("duplicate mesh name")
)

// Description is the YAML form of a scene.
type Description struct {
	Meshes []MeshDescription  `yaml:"meshes"`
	Lights []LightDescription `yaml:"lights"`
}

// MeshDescription places one procedural shape in the scene.
type MeshDescription struct {
	Name      string              `yaml:"name"`
	Shape     string              `yaml:"shape"` // plane, sphere or box
	Size      float32             `yaml:"size"`
	Extents   *[3]float32         `yaml:"extents,omitempty"`
	Radius    float32             `yaml:"radius"`
	Rings     int                 `yaml:"rings"`
	Segments  int                 `yaml:"segments"`
	Translate [3]float32          `yaml:"translate"`
	Rotate    *RotateDescription  `yaml:"rotate,omitempty"`
	Scale     float32             `yaml:"scale"`
	Material  MaterialDescription `yaml:"material"`
}

// RotateDescription is an axis-angle rotation in degrees.
type RotateDescription struct {
	Axis    [3]float32 `yaml:"axis"`
	Degrees float32    `yaml:"degrees"`
}

// MaterialDescription selects a material.
type MaterialDescription struct {
	Type     string      `yaml:"type"`             // diffuse or glossy
	Albedo   *[3]float32 `yaml:"albedo,omitempty"` // white when omitted
	Exponent float32     `yaml:"exponent"`
}

// LightDescription selects a light.
type LightDescription struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"` // directional or probe
	ConeDegrees float32     `yaml:"cone_degrees"`
	Color       *[3]float32 `yaml:"color,omitempty"`
	Path        string      `yaml:"path"`
	Size        int         `yaml:"size"`
}

// ParseDescription parses a YAML scene description.
func ParseDescription(data []byte) (*Description, error) {
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing scene description: %w", err)
	}
	return &d, nil
}

// LoadDescription reads a YAML scene description from disk.
func LoadDescription(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene description: %w", err)
	}
	return ParseDescription(data)
}

// Build generates the meshes, loads the lights and builds the scene.
// Relative probe paths are resolved against baseDir.
func (d *Description) Build(baseDir string, terminationSize int) (*Scene, error) {
	meshes := make([]*Mesh, 0, len(d.Meshes))
	names := make(map[string]int, len(d.Meshes))
	for i, md := range d.Meshes {
		if md.Name == "" {
			md.Name = fmt.Sprintf("mesh%d", i)
		}
		if prev, ok := names[md.Name]; ok {
			return nil, fmt.Errorf("%w: %q at meshes %d and %d", ErrDuplicateMesh, md.Name, prev, i)
		}
		names[md.Name] = i
		m, err := md.build()
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", md.Name, err)
		}
		meshes = append(meshes, m)
	}

	lights := make([]Light, 0, len(d.Lights))
	for i, ld := range d.Lights {
		l, err := ld.build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		lights = append(lights, l)
	}

	return New(meshes, lights, terminationSize), nil
}

func (md MeshDescription) build() (*Mesh, error) {
	var shape Shape
	switch md.Shape {
	case "plane":
		shape = Plane(orDefault(md.Size, 1), md.Segments)
	case "sphere":
		shape = Sphere(orDefault(md.Radius, 1), orDefaultInt(md.Rings, 16), orDefaultInt(md.Segments, 32))
	case "box":
		extents := math.Splat(orDefault(md.Size, 1))
		if md.Extents != nil {
			extents = math.Vec3FromArray(*md.Extents)
		}
		shape = Box(extents)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownShape, md.Shape)
	}

	material, err := md.Material.build()
	if err != nil {
		return nil, err
	}

	m, err := NewMesh(md.Name, shape.Positions, shape.Normals, shape.Indices, material)
	if err != nil {
		return nil, err
	}
	m.Transform(md.transform())
	return m, nil
}

// transform returns translate * rotate * scale.
func (md MeshDescription) transform() math.Mat4 {
	s := orDefault(md.Scale, 1)
	t := math.Scale(s, s, s)
	if md.Rotate != nil && md.Rotate.Degrees != 0 {
		axis := math.Vec3FromArray(md.Rotate.Axis).Normalize()
		t = math.RotateAxis(axis, md.Rotate.Degrees*math32.Pi/180).Mul(t)
	}
	return math.Translate(md.Translate[0], md.Translate[1], md.Translate[2]).Mul(t)
}

func (md MaterialDescription) build() (Material, error) {
	switch md.Type {
	case "", "diffuse":
		albedo := math.Splat(1)
		if md.Albedo != nil {
			albedo = math.Vec3FromArray(*md.Albedo)
		}
		return Diffuse{Albedo: albedo}, nil
	case "glossy":
		return Glossy{Exponent: orDefault(md.Exponent, 1)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, md.Type)
	}
}

func (ld LightDescription) build(baseDir string) (Light, error) {
	switch ld.Type {
	case "directional":
		l := NewDirectional()
		if ld.ConeDegrees > 0 {
			l.ConeAngle = ld.ConeDegrees * math32.Pi / 180
		}
		if ld.Color != nil {
			l.Color = math.Vec3FromArray(*ld.Color)
		}
		return l, nil
	case "probe":
		path := ld.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := formats.ParseProbeFile(path, ld.Size)
		if err != nil {
			return nil, err
		}
		size := ld.Size
		if size == 0 {
			size = int(math32.Sqrt(float32(len(data))))
		}
		return Probe{Size: size, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLight, ld.Type)
	}
}

func orDefault(v, def float32) float32 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
