// Package bake computes per-vertex SH transfer for a static scene: a direct
// pass with visibility, then a fixed number of indirect bounces, with
// results cached on disk.
package bake

import (
	"math/rand"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-prt/internal/logger"
	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

// Defaults used for zero Options fields.
const (
	DefaultBands       = 5
	DefaultSqrtSamples = 50
	DefaultBounces     = 2
	DefaultRayBias     = 0.025
	DefaultSeed        = 1

	vertexChunk = 64
)

// Options configures a Baker.
type Options struct {
	Bands       int     // SH bands, coefficient count is Bands²
	SqrtSamples int     // samples per axis of the stratified grid
	Bounces     int     // indirect bounces after the direct pass
	Workers     int     // 0 uses every logical CPU
	RayBias     float32 // ray origin offset along the vertex normal
	Seed        int64   // sample jitter seed
	CacheDir    string  // empty disables caching
	Rebake      bool    // ignore existing caches
	Logger      *zap.Logger
}

// DefaultOptions returns the reference bake settings.
func DefaultOptions() Options {
	return Options{
		Bands:       DefaultBands,
		SqrtSamples: DefaultSqrtSamples,
		Bounces:     DefaultBounces,
		RayBias:     DefaultRayBias,
		Seed:        DefaultSeed,
	}
}

// Stats summarises a bake.
type Stats struct {
	Vertices int
	Samples  int
	Occluded int   // occluded samples in the direct pass
	Hits     []int // traced hits that carried transport, per bounce
	Skipped  int   // bounce hits between a diffuse and a glossy surface
	Duration time.Duration
}

// Result is the output of Bake.
type Result struct {
	Transfers []*Transfer        // one per scene mesh, in scene order
	Lights    [][]math.Vec3      // projected coefficients per scene light
	Lobes     [][]float32        // per-band lobe weights of glossy meshes, nil for diffuse
	Occlusion [][]*bitset.BitSet // occluded samples per mesh and vertex, nil when loaded from cache
	Stats     Stats
	FromCache bool
}

// Baker bakes scenes with a fixed sample set.
type Baker struct {
	opts       Options
	log        *zap.Logger
	samples    []sh.Sample
	coeffCount int
}

// NewBaker fills zero options with defaults and generates the sample set.
func NewBaker(opts Options) *Baker {
	def := DefaultOptions()
	if opts.Bands <= 0 {
		opts.Bands = def.Bands
	}
	if opts.SqrtSamples <= 0 {
		opts.SqrtSamples = def.SqrtSamples
	}
	if opts.Bounces < 0 {
		opts.Bounces = 0
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.RayBias <= 0 {
		opts.RayBias = def.RayBias
	}
	if opts.Seed == 0 {
		opts.Seed = def.Seed
	}

	log := opts.Logger
	if log == nil {
		log = logger.L()
	}

	return &Baker{
		opts:       opts,
		log:        log.Named("bake"),
		samples:    sh.GenerateSamples(opts.SqrtSamples, opts.Bands, rand.New(rand.NewSource(opts.Seed))),
		coeffCount: sh.CoeffCount(opts.Bands),
	}
}

// Options returns the effective options.
func (b *Baker) Options() Options {
	return b.opts
}

// Samples returns the shared sample set.
func (b *Baker) Samples() []sh.Sample {
	return b.samples
}

// layout returns the transfer kind and per-vertex coefficient count of a
// mesh.
func (b *Baker) layout(m *scene.Mesh) (Kind, int) {
	if _, ok := m.Material.(scene.Glossy); ok {
		return KindMatrix, b.coeffCount * b.coeffCount
	}
	return KindVector, b.coeffCount
}

// Bake returns the transfer of every mesh, loading it from the cache when
// every mesh has a matching cache file. The result is always usable; a
// non-nil error reports cache files that could not be written.
func (b *Baker) Bake(s *scene.Scene) (*Result, error) {
	start := time.Now()
	result := &Result{
		Lights: ProjectLights(s.Lights, b.samples, b.opts.Bands),
		Lobes:  glossyLobes(s.Meshes, b.samples, b.opts.Bands),
		Stats: Stats{
			Vertices: s.VertexCount(),
			Samples:  len(b.samples),
		},
	}

	if cached := b.loadCache(s); cached != nil {
		b.log.Info("transfer loaded from cache", zap.Int("meshes", len(cached)))
		result.Transfers = cached
		result.FromCache = true
		result.Stats.Duration = time.Since(start)
		return result, nil
	}

	b.bake(s, result)
	result.Stats.Duration = time.Since(start)

	b.log.Info("bake finished",
		zap.Int("vertices", result.Stats.Vertices),
		zap.Int("occluded", result.Stats.Occluded),
		zap.Ints("bounce_hits", result.Stats.Hits),
		zap.Int("skipped_mixed", result.Stats.Skipped),
		zap.Duration("elapsed", result.Stats.Duration))

	return result, b.saveCache(result.Transfers)
}

func (b *Baker) bake(s *scene.Scene, result *Result) {
	vertexCounts := make([]int, len(s.Meshes))
	var transferBytes uint64
	for i, m := range s.Meshes {
		vertexCounts[i] = m.VertexCount()
		_, cc := b.layout(m)
		transferBytes += uint64(cc) * uint64(m.VertexCount()) * 12
	}
	// final, previous and current pass
	logHost(b.log, b.opts.Workers, 3*transferBytes)

	tasks := splitVertices(vertexCounts, vertexChunk)
	norm := 4 * math32.Pi / float32(len(b.samples))

	occlusion := make([][]*bitset.BitSet, len(s.Meshes))
	for i, n := range vertexCounts {
		occlusion[i] = make([]*bitset.BitSet, n)
	}

	direct := b.newTransfers(s)
	stop := logger.Timed(b.log, "direct pass")
	stats := runPass(b.opts.Workers, tasks, func(t vertexTask) passStats {
		return b.directPass(s, direct, occlusion, t)
	})
	stop()
	for _, t := range direct {
		t.scale(norm)
	}
	result.Stats.Occluded = stats.Occluded

	final := b.newTransfers(s)
	for i := range final {
		final[i].accumulate(direct[i])
	}

	prev := direct
	for bounce := 1; bounce <= b.opts.Bounces; bounce++ {
		cur := b.newTransfers(s)
		stop := logger.Timed(b.log, "bounce pass", zap.Int("bounce", bounce))
		stats := runPass(b.opts.Workers, tasks, func(t vertexTask) passStats {
			return b.bouncePass(s, result.Lobes, prev, cur, occlusion, t)
		})
		stop()

		for i := range cur {
			cur[i].scale(norm)
			final[i].accumulate(cur[i])
		}
		result.Stats.Hits = append(result.Stats.Hits, stats.Traced)
		result.Stats.Skipped += stats.Skipped
		prev = cur
	}

	result.Transfers = final
	result.Occlusion = occlusion
}

func (b *Baker) newTransfers(s *scene.Scene) []*Transfer {
	out := make([]*Transfer, len(s.Meshes))
	for i, m := range s.Meshes {
		kind, cc := b.layout(m)
		out[i] = newTransfer(m.Name, kind, cc, m.VertexCount())
	}
	return out
}
