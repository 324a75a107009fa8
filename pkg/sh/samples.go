package sh

import (
	"math/rand"

	"github.com/chewxy/math32"

	"github.com/Faultbox/midgard-prt/pkg/math"
)

// Sample is a direction on the unit sphere with its precomputed basis values.
type Sample struct {
	Theta     float32
	Phi       float32
	Direction math.Vec3
	Coeffs    []float32
}

// GenerateSamples returns sqrtN² stratified jittered samples distributed
// uniformly over the sphere. Each cell of the sqrtN×sqrtN grid gets one
// random offset. A nil rng uses a fixed seed.
func GenerateSamples(sqrtN, bands int, rng *rand.Rand) []Sample {
	checkBands(bands)
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	inv := 1 / float32(sqrtN)
	samples := make([]Sample, 0, sqrtN*sqrtN)
	for i := 0; i < sqrtN; i++ {
		for j := 0; j < sqrtN; j++ {
			x := (float32(i) + rng.Float32()) * inv
			y := (float32(j) + rng.Float32()) * inv

			theta := 2 * math32.Acos(math32.Sqrt(1-x))
			phi := 2 * math32.Pi * y

			samples = append(samples, Sample{
				Theta:     theta,
				Phi:       phi,
				Direction: FromSpherical(theta, phi),
				Coeffs:    EvaluateAll(theta, phi, bands, nil),
			})
		}
	}
	return samples
}
