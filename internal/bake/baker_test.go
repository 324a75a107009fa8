package bake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.SqrtSamples = 30
	opts.Workers = 4
	return opts
}

func hemisphereLight() scene.Light {
	return scene.Directional{ConeAngle: math32.Pi / 2, Color: math.Splat(1)}
}

func mustMesh(t *testing.T, name string, shape scene.Shape, material scene.Material, transform math.Mat4) *scene.Mesh {
	t.Helper()
	m, err := scene.NewMesh(name, shape.Positions, shape.Normals, shape.Indices, material)
	if err != nil {
		t.Fatalf("NewMesh(%s): %v", name, err)
	}
	m.Transform(transform)
	return m
}

// sphereOverPlane puts a unit sphere at (0, 0, 2) above a small floor whose
// centre vertex sits at the origin.
func sphereOverPlane(t *testing.T, floorMat, ballMat scene.Material) *scene.Scene {
	floor := mustMesh(t, "floor", scene.Plane(0.5, 2), floorMat, math.Identity())
	ball := mustMesh(t, "ball", scene.Sphere(1, 32, 64), ballMat, math.Translate(0, 0, 2))
	return scene.New([]*scene.Mesh{floor, ball}, []scene.Light{hemisphereLight()}, 0)
}

func centreVertex(t *testing.T, m *scene.Mesh) int {
	t.Helper()
	for i, p := range m.Positions {
		if p.Length() < 1e-6 {
			return i
		}
	}
	t.Fatal("no vertex at the origin")
	return -1
}

func TestHemisphereLightUnoccludedVertex(t *testing.T) {
	albedo := math.Vec3{X: 0.8, Y: 0.5, Z: 0.2}
	m, err := scene.NewMesh("point", []math.Vec3{{}}, []math.Vec3{{Z: 1}}, nil, scene.Diffuse{Albedo: albedo})
	if err != nil {
		t.Fatal(err)
	}
	s := scene.New([]*scene.Mesh{m}, []scene.Light{hemisphereLight()}, 0)

	res, err := NewBaker(testOptions()).Bake(s)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if res.Stats.Occluded != 0 || res.Occlusion[0][0].Count() != 0 {
		t.Errorf("unoccluded vertex has %d occluded samples", res.Occlusion[0][0].Count())
	}

	tr := res.Transfers[0]
	if tr.Kind != KindVector || tr.CoeffCount != 25 || tr.VertexCount() != 1 {
		t.Fatalf("transfer layout = %v/%d/%d", tr.Kind, tr.CoeffCount, tr.VertexCount())
	}

	// T[0] integrates albedo·cosθ·Y00 over the hemisphere.
	wantT0 := albedo.Scale(math32.Sqrt(math32.Pi) / 2)
	if tr.Coeffs[0].Sub(wantT0).Length() > 0.02*wantT0.Length() {
		t.Errorf("T[0] = %v, want %v", tr.Coeffs[0], wantT0)
	}

	// Exit radiance under the hemisphere light is albedo·π.
	got := tr.Radiance(0, res.Lights[0])
	want := albedo.Scale(math32.Pi)
	if got.Sub(want).Length() > 0.03*want.Length() {
		t.Errorf("T·L = %v, want %v", got, want)
	}
}

func TestSphereOverPlaneOcclusionCone(t *testing.T) {
	s := sphereOverPlane(t, scene.Diffuse{Albedo: math.Splat(0.5)}, scene.Diffuse{Albedo: math.Splat(0.5)})
	opts := testOptions()
	opts.Bounces = 0
	b := NewBaker(opts)
	res, err := b.Bake(s)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}

	// The sphere subtends asin(1/1.975) from the biased ray origin.
	v := centreVertex(t, s.Meshes[0])
	vis := res.Occlusion[0][v]
	inner := 26 * math32.Pi / 180
	outer := 35 * math32.Pi / 180

	var inCone int
	for i, smp := range b.Samples() {
		occluded := vis.Test(uint(i))
		switch {
		case smp.Direction.Z < 0:
			if occluded {
				t.Errorf("sample %d below the floor marked occluded", i)
			}
		case smp.Theta < inner:
			inCone++
			if !occluded {
				t.Errorf("sample %d at θ=%.1f° inside the sphere's cone is unoccluded", i, smp.Theta*180/math32.Pi)
			}
		case smp.Theta > outer:
			if occluded {
				t.Errorf("sample %d at θ=%.1f° outside the sphere's cone is occluded", i, smp.Theta*180/math32.Pi)
			}
		}
	}
	if inCone == 0 {
		t.Fatal("no samples fell inside the cone")
	}
}

func TestDownwardFacingVertexUnderSphere(t *testing.T) {
	floor := mustMesh(t, "ceiling", scene.Plane(0.5, 2), scene.Diffuse{Albedo: math.Splat(1)},
		math.RotateAxis(math.Vec3{X: 1}, math32.Pi))
	ball := mustMesh(t, "ball", scene.Sphere(1, 16, 32), scene.Diffuse{Albedo: math.Splat(1)}, math.Translate(0, 0, 2))
	s := scene.New([]*scene.Mesh{floor, ball}, nil, 0)

	opts := testOptions()
	opts.Bounces = 0
	res, err := NewBaker(opts).Bake(s)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	for v, vis := range res.Occlusion[0] {
		if vis.Count() != 0 {
			t.Errorf("vertex %d facing away from the sphere has %d occluded samples", v, vis.Count())
		}
	}
}

func TestBouncesAddEnergy(t *testing.T) {
	mat := scene.Diffuse{Albedo: math.Splat(0.7)}

	bake := func(bounces int) *Result {
		s := sphereOverPlane(t, mat, mat)
		opts := testOptions()
		opts.Bounces = bounces
		res, err := NewBaker(opts).Bake(s)
		if err != nil {
			t.Fatalf("Bake failed: %v", err)
		}
		return res
	}

	direct := bake(0)
	oneBounce := bake(1)
	twoBounces := bake(2)

	floor := sphereOverPlane(t, mat, mat).Meshes[0]
	v := centreVertex(t, floor)

	d := direct.Transfers[0].Vertex(v)[0].X
	b1 := oneBounce.Transfers[0].Vertex(v)[0].X
	b2 := twoBounces.Transfers[0].Vertex(v)[0].X
	if !(d < b1 && b1 <= b2) {
		t.Errorf("T[0] should grow with bounces: direct %v, one %v, two %v", d, b1, b2)
	}
	if len(twoBounces.Stats.Hits) != 2 || twoBounces.Stats.Hits[0] == 0 {
		t.Errorf("bounce hits = %v", twoBounces.Stats.Hits)
	}
	if twoBounces.Stats.Skipped != 0 {
		t.Errorf("diffuse-only scene skipped %d hits", twoBounces.Stats.Skipped)
	}
}

func TestMixedMaterialBouncesSkipped(t *testing.T) {
	bake := func(bounces int) *Result {
		s := sphereOverPlane(t, scene.Diffuse{Albedo: math.Splat(0.7)}, scene.Glossy{Exponent: 1})
		opts := testOptions()
		opts.Bands = 3
		opts.SqrtSamples = 16
		opts.Bounces = bounces
		res, err := NewBaker(opts).Bake(s)
		if err != nil {
			t.Fatalf("Bake failed: %v", err)
		}
		return res
	}

	direct := bake(0)
	bounced := bake(2)

	if bounced.Stats.Skipped == 0 {
		t.Error("expected skipped mixed-material hits")
	}
	for m := range direct.Transfers {
		a, b := direct.Transfers[m].Coeffs, bounced.Transfers[m].Coeffs
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("mesh %d coefficient %d changed by mixed bounces: %v -> %v", m, i, a[i], b[i])
			}
		}
	}

	glossy := bounced.Transfers[1]
	if glossy.Kind != KindMatrix || glossy.CoeffCount != 81 {
		t.Errorf("glossy transfer layout = %v/%d", glossy.Kind, glossy.CoeffCount)
	}
	if bounced.Lobes[0] != nil || len(bounced.Lobes[1]) != 3 {
		t.Errorf("lobes = %v", bounced.Lobes)
	}
}

func TestGlossyTransport(t *testing.T) {
	glossy := scene.Glossy{Exponent: 4}
	s := sphereOverPlane(t, glossy, glossy)
	opts := testOptions()
	opts.Bands = 3
	opts.SqrtSamples = 16
	opts.Bounces = 1
	res, err := NewBaker(opts).Bake(s)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}

	if len(res.Stats.Hits) != 1 || res.Stats.Hits[0] == 0 {
		t.Fatalf("no glossy bounce transport: %v", res.Stats.Hits)
	}

	v := centreVertex(t, s.Meshes[0])
	m := res.Transfers[0].Vertex(v)
	n := sh.CoeffCount(3)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			c := m[i*n+j]
			if math32.IsNaN(c.X) || math32.IsInf(c.X, 0) {
				t.Fatalf("entry (%d, %d) is %v", i, j, c)
			}
		}
	}
	opts.Bounces = 0
	directOnly, err := NewBaker(opts).Bake(s)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if directOnly.Transfers[0].Vertex(v)[0] == m[0] {
		t.Error("bounce did not change the centre vertex transfer")
	}
}

func TestCacheReuse(t *testing.T) {
	dir := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)

	opts := testOptions()
	opts.Bands = 3
	opts.SqrtSamples = 12
	opts.Bounces = 1
	opts.CacheDir = dir
	opts.Logger = zap.New(core)

	mat := scene.Diffuse{Albedo: math.Splat(0.6)}
	first, err := NewBaker(opts).Bake(sphereOverPlane(t, mat, scene.Glossy{Exponent: 2}))
	if err != nil {
		t.Fatalf("first Bake failed: %v", err)
	}
	if first.FromCache {
		t.Fatal("first bake cannot come from the cache")
	}
	for _, name := range []string{"0_floor_diffuse.dat", "1_ball_glossy.dat"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("cache file %s: %v", name, err)
		}
	}
	if n := logs.FilterMessage("transfer cache miss, rebaking scene").Len(); n != 1 {
		t.Errorf("expected one cache miss warning, got %d", n)
	}

	second, err := NewBaker(opts).Bake(sphereOverPlane(t, mat, scene.Glossy{Exponent: 2}))
	if err != nil {
		t.Fatalf("second Bake failed: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second bake should load from the cache")
	}
	for m := range first.Transfers {
		a, b := first.Transfers[m].Coeffs, second.Transfers[m].Coeffs
		if len(a) != len(b) {
			t.Fatalf("mesh %d: %d vs %d coefficients", m, len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("mesh %d coefficient %d differs after reload", m, i)
			}
		}
	}
	if len(second.Lights) != 1 {
		t.Errorf("lights are projected even when loading from the cache")
	}

	// A different floor tessellation no longer matches the vertex count.
	logs.TakeAll()
	floor := mustMesh(t, "floor", scene.Plane(0.5, 4), mat, math.Identity())
	ball := mustMesh(t, "ball", scene.Sphere(1, 32, 64), scene.Glossy{Exponent: 2}, math.Translate(0, 0, 2))
	third, err := NewBaker(opts).Bake(scene.New([]*scene.Mesh{floor, ball}, nil, 0))
	if err != nil {
		t.Fatalf("third Bake failed: %v", err)
	}
	if third.FromCache {
		t.Error("count mismatch must trigger a rebake")
	}
	misses := logs.FilterMessage("transfer cache miss, rebaking scene").All()
	if len(misses) != 1 || misses[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning, got %v", misses)
	}

	opts.Rebake = true
	fourth, err := NewBaker(opts).Bake(scene.New([]*scene.Mesh{floor, ball}, nil, 0))
	if err != nil {
		t.Fatalf("fourth Bake failed: %v", err)
	}
	if fourth.FromCache {
		t.Error("Rebake must ignore the cache")
	}
}

func TestCacheKeepsSameNamedMeshesApart(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.Bands = 2
	opts.SqrtSamples = 12
	opts.Bounces = 0
	opts.CacheDir = dir

	build := func() *scene.Scene {
		mat := scene.Diffuse{Albedo: math.Splat(0.8)}
		open := mustMesh(t, "floor", scene.Plane(1, 2), mat, math.Identity())
		covered := mustMesh(t, "floor", scene.Plane(1, 2), mat, math.Translate(0, 0, -3))
		lid := mustMesh(t, "lid", scene.Plane(4, 1), mat, math.Translate(0, 0, -2))
		return scene.New([]*scene.Mesh{open, covered, lid}, []scene.Light{hemisphereLight()}, 0)
	}

	s := build()
	first, err := NewBaker(opts).Bake(s)
	if err != nil {
		t.Fatalf("first Bake failed: %v", err)
	}
	v := centreVertex(t, s.Meshes[0])
	open, covered := first.Transfers[0].Vertex(v)[0], first.Transfers[1].Vertex(v)[0]
	if covered.X > 0.5*open.X {
		t.Fatalf("lid should shadow the lower floor: open T0 %v, covered T0 %v", open, covered)
	}
	for _, name := range []string{"0_floor_diffuse.dat", "1_floor_diffuse.dat"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("cache file %s: %v", name, err)
		}
	}

	second, err := NewBaker(opts).Bake(build())
	if err != nil {
		t.Fatalf("second Bake failed: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second bake should load from the cache")
	}
	for m := range first.Transfers {
		a, b := first.Transfers[m].Coeffs, second.Transfers[m].Coeffs
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("mesh %d (%s) coefficient %d: baked %v, cached %v", m, first.Transfers[m].Mesh, i, a[i], b[i])
			}
		}
	}
}

func TestCacheSaveErrorsAggregated(t *testing.T) {
	dir := t.TempDir()
	// A regular file where the cache directory should be.
	blocker := filepath.Join(dir, "cache")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.SqrtSamples = 8
	opts.Bounces = 0
	opts.CacheDir = filepath.Join(blocker, "nested")

	mat := scene.Diffuse{Albedo: math.Splat(0.5)}
	a := mustMesh(t, "a", scene.Plane(1, 1), mat, math.Identity())
	b := mustMesh(t, "b", scene.Plane(1, 1), mat, math.Translate(0, 0, 3))
	res, err := NewBaker(opts).Bake(scene.New([]*scene.Mesh{a, b}, nil, 0))
	if err == nil {
		t.Fatal("expected save errors")
	}
	if res == nil || len(res.Transfers) != 2 {
		t.Fatal("result must be usable despite save errors")
	}
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 aggregated errors, got %d: %v", n, err)
	}
}

func TestNewBakerDefaults(t *testing.T) {
	b := NewBaker(Options{Bounces: -3})
	got := b.Options()
	if got.Bands != DefaultBands || got.SqrtSamples != DefaultSqrtSamples || got.Bounces != 0 ||
		got.RayBias != DefaultRayBias || got.Workers < 1 {
		t.Errorf("effective options = %+v", got)
	}
	if len(b.Samples()) != DefaultSqrtSamples*DefaultSqrtSamples {
		t.Errorf("got %d samples", len(b.Samples()))
	}
}

func TestProjectLights(t *testing.T) {
	samples := sh.GenerateSamples(20, 3, nil)
	lights := []scene.Light{
		scene.Directional{ConeAngle: math32.Pi, Color: math.Vec3{X: 1, Y: 2, Z: 3}},
		scene.Directional{ConeAngle: 0, Color: math.Splat(1)},
	}
	out := ProjectLights(lights, samples, 3)
	if len(out) != 2 || len(out[0]) != 9 {
		t.Fatalf("unexpected shape %d x %d", len(out), len(out[0]))
	}
	// A full-sphere light is constant: only the DC term survives.
	k := 2 * math32.Sqrt(math32.Pi)
	if out[0][0].Sub(math.Vec3{X: k, Y: 2 * k, Z: 3 * k}).Length() > 0.05 {
		t.Errorf("full sphere DC = %v", out[0][0])
	}
	for _, c := range out[1] {
		if c != (math.Vec3{}) {
			t.Errorf("empty cone projected to %v", out[1])
			break
		}
	}
}

func TestSplitVertices(t *testing.T) {
	tasks := splitVertices([]int{130, 0, 5}, 64)
	want := []vertexTask{
		{Mesh: 0, Start: 0, End: 64},
		{Mesh: 0, Start: 64, End: 128},
		{Mesh: 0, Start: 128, End: 130},
		{Mesh: 2, Start: 0, End: 5},
	}
	if len(tasks) != len(want) {
		t.Fatalf("got %d tasks, want %d", len(tasks), len(want))
	}
	for i := range want {
		if tasks[i] != want[i] {
			t.Errorf("task %d = %+v, want %+v", i, tasks[i], want[i])
		}
	}
}

func TestRunPassSumsStats(t *testing.T) {
	tasks := splitVertices([]int{1000}, 10)
	stats := runPass(3, tasks, func(task vertexTask) passStats {
		return passStats{Occluded: task.End - task.Start, Traced: 1}
	})
	if stats.Occluded != 1000 || stats.Traced != 100 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLogHost(t *testing.T) {
	if DefaultWorkers() < 1 {
		t.Fatalf("DefaultWorkers() = %d", DefaultWorkers())
	}

	core, logs := observer.New(zapcore.InfoLevel)
	logHost(zap.New(core), 3, 1<<20)
	host := logs.FilterMessage("bake host").All()
	if len(host) != 1 {
		t.Fatalf("expected one host entry, got %d", len(host))
	}
	if got := host[0].ContextMap()["workers"]; got != int64(3) {
		t.Errorf("workers field = %v", got)
	}

	// Far more than any machine has available
	logs.TakeAll()
	logHost(zap.New(core), 1, 1<<62)
	if logs.FilterMessage("transfer buffers exceed available memory").Len() != 1 {
		t.Skip("memory statistics unavailable on this host")
	}
}
