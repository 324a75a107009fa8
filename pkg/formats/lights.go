package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// ErrInvalidLights is returned for a light file whose coefficient counts do
// not match its band count.
var ErrInvalidLights = errors.New("invalid light coefficients")

// LightsFile is the SH lighting a renderer needs next to the transfer
// caches.
type LightsFile struct {
	Bands  int           `yaml:"bands"`
	Lights []LightCoeffs `yaml:"lights"`
	Lobes  []LobeCoeffs  `yaml:"lobes,omitempty"`
}

// LightCoeffs holds the projected radiance of one light.
type LightCoeffs struct {
	Name   string       `yaml:"name"`
	Type   string       `yaml:"type"`
	Coeffs [][3]float32 `yaml:"coeffs,flow"`
}

// LobeCoeffs holds the per-band BRDF lobe weights of one glossy mesh.
type LobeCoeffs struct {
	Mesh     string    `yaml:"mesh"`
	Exponent float32   `yaml:"exponent"`
	Weights  []float32 `yaml:"weights,flow"`
}

// NewLightCoeffs converts projected coefficients for export.
func NewLightCoeffs(name, typ string, coeffs []math.Vec3) LightCoeffs {
	out := LightCoeffs{Name: name, Type: typ, Coeffs: make([][3]float32, len(coeffs))}
	for i, c := range coeffs {
		out.Coeffs[i] = c.Array()
	}
	return out
}

// Vectors returns the coefficients as vectors.
func (l LightCoeffs) Vectors() []math.Vec3 {
	out := make([]math.Vec3, len(l.Coeffs))
	for i, c := range l.Coeffs {
		out[i] = math.Vec3FromArray(c)
	}
	return out
}

// Validate checks every coefficient and lobe count against Bands.
func (f *LightsFile) Validate() error {
	if f.Bands < 1 || f.Bands > sh.MaxBands {
		return fmt.Errorf("%w: bands %d outside [1, %d]", ErrInvalidLights, f.Bands, sh.MaxBands)
	}
	want := f.Bands * f.Bands
	for _, l := range f.Lights {
		if len(l.Coeffs) != want {
			return fmt.Errorf("%w: light %q has %d coefficients, want %d", ErrInvalidLights, l.Name, len(l.Coeffs), want)
		}
	}
	for _, l := range f.Lobes {
		if len(l.Weights) != f.Bands {
			return fmt.Errorf("%w: lobe of %q has %d weights, want %d", ErrInvalidLights, l.Mesh, len(l.Weights), f.Bands)
		}
	}
	return nil
}

// ParseLights parses and validates a light coefficient file.
func ParseLights(data []byte) (*LightsFile, error) {
	var f LightsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lights: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadLightsFile reads and parses a light coefficient file.
func LoadLightsFile(path string) (*LightsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lights: %w", err)
	}
	return ParseLights(data)
}

// SaveFile writes the file as YAML, creating parent directories.
func (f *LightsFile) SaveFile(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding lights: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
