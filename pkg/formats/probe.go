package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"
	"os"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// ErrInvalidProbe is returned for probe data that is not a square RGB image.
var ErrInvalidProbe = errors.New("invalid light probe")

const probeTexelSize = 12 // 3 x float32

// ParseProbe parses a raw angular-map light probe: size*size RGB float32
// texels in host byte order. A size of 0 infers the size from the data
// length.
func ParseProbe(data []byte, size int) ([]math.Vec3, error) {
	if len(data)%probeTexelSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of texels", ErrInvalidProbe, len(data))
	}
	texels := len(data) / probeTexelSize

	if size == 0 {
		size = int(stdmath.Sqrt(float64(texels)))
	}
	if size <= 0 || size*size != texels {
		return nil, fmt.Errorf("%w: %d texels do not form a %dx%d image", ErrInvalidProbe, texels, size, size)
	}

	out := make([]math.Vec3, texels)
	if err := binary.Read(bytes.NewReader(data), binary.NativeEndian, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbe, err)
	}
	return out, nil
}

// ParseProbeFile reads and parses a light probe from disk.
func ParseProbeFile(path string, size int) ([]math.Vec3, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading probe file: %w", err)
	}
	return ParseProbe(data, size)
}
