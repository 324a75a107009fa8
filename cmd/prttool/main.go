// prttool is a CLI utility for inspecting transfer caches and working with
// SH light coefficients.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-prt/internal/bake"
	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/formats"
	"github.com/Faultbox/midgard-prt/pkg/math"
	"github.com/Faultbox/midgard-prt/pkg/sh"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "light":
		cmdLight(args)
	case "rotate":
		cmdRotate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`prttool - precomputed radiance transfer utility

Usage:
  prttool <command> [options]

Commands:
  info <cache.dat>                          Show transfer cache header
  light [-cone deg] [-probe file -size n]   Project a light into SH coefficients
  rotate -axis x,y,z -degrees a <lights>    Rotate exported light coefficients

Examples:
  prttool info cache/0_floor_diffuse.dat
  prttool light -cone 30 -bands 4
  prttool light -probe grace_probe.float -size 1000 -o grace.yaml
  prttool rotate -axis 0,0,1 -degrees 90 -o rotated.yaml lights.yaml`)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: prttool info <cache.dat>")
		os.Exit(1)
	}

	path := args[0]
	header, err := formats.ReadTransferHeader(path)
	if err != nil {
		fatal(err)
	}
	st, err := os.Stat(path)
	if err != nil {
		fatal(err)
	}

	kind, bands := describeCache(path, header)
	expected := int64(8 + header.Len()*12)

	fmt.Printf("Cache:        %s\n", path)
	fmt.Printf("Kind:         %s\n", kind)
	fmt.Printf("Vertices:     %d\n", header.VertexCount)
	fmt.Printf("Coefficients: %d per vertex\n", header.CoeffCount)
	if bands > 0 {
		fmt.Printf("Bands:        %d\n", bands)
	} else {
		fmt.Println("Bands:        (not a square coefficient count)")
	}
	fmt.Printf("Size:         %.2f MB\n", float64(st.Size())/(1024*1024))
	if st.Size() != expected {
		fmt.Printf("Warning:      file is %d bytes, header announces %d\n", st.Size(), expected)
	}
}

// describeCache infers the transfer kind from the cache file name and the
// band count from the per-vertex coefficient count. bands is 0 when the
// count does not fit the kind.
func describeCache(path string, h formats.TransferHeader) (kind bake.Kind, bands int) {
	kind = bake.KindVector
	if strings.HasSuffix(filepath.Base(path), "_"+bake.KindMatrix.String()+".dat") {
		kind = bake.KindMatrix
	}

	c := isqrt(int(h.CoeffCount))
	if c*c != int(h.CoeffCount) {
		return kind, 0
	}
	if kind == bake.KindVector {
		return kind, c
	}
	b := isqrt(c)
	if b*b != c {
		return kind, 0
	}
	return kind, b
}

func isqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

func cmdLight(args []string) {
	fs := flag.NewFlagSet("light", flag.ExitOnError)
	cone := fs.Float64("cone", 30, "Cone half-angle in degrees (90 is a hemisphere)")
	probe := fs.String("probe", "", "Angular-map probe file (overrides -cone)")
	size := fs.Int("size", 0, "Probe edge length in texels (0 infers from file size)")
	bands := fs.Int("bands", bake.DefaultBands, "SH bands")
	samples := fs.Int("samples", bake.DefaultSqrtSamples, "Samples per axis")
	seed := fs.Int64("seed", bake.DefaultSeed, "Sample jitter seed")
	output := fs.String("o", "", "Write a lights file instead of printing")
	fs.Parse(args)

	if *bands < 1 || *bands > sh.MaxBands || *samples < 1 {
		fmt.Fprintf(os.Stderr, "bands must be in [1, %d] and samples positive\n", sh.MaxBands)
		os.Exit(1)
	}

	var light scene.Light
	if *probe != "" {
		data, err := formats.ParseProbeFile(*probe, *size)
		if err != nil {
			fatal(err)
		}
		edge := isqrt(len(data))
		light = scene.Probe{Size: edge, Data: data}
	} else {
		d := scene.NewDirectional()
		d.ConeAngle = float32(*cone) * math32.Pi / 180
		light = d
	}

	lights := projectLight(light, *bands, *samples, *seed)
	if *output != "" {
		if err := lights.SaveFile(*output); err != nil {
			fatal(err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", *output)
		return
	}

	printCoeffs(lights.Bands, lights.Lights[0].Vectors())
}

// projectLight projects a single light with a fresh sample set.
func projectLight(light scene.Light, bands, sqrtSamples int, seed int64) *formats.LightsFile {
	samples := sh.GenerateSamples(sqrtSamples, bands, rand.New(rand.NewSource(seed)))
	coeffs := bake.ProjectLights([]scene.Light{light}, samples, bands)[0]
	typ := scene.LightName(light)
	return &formats.LightsFile{
		Bands:  bands,
		Lights: []formats.LightCoeffs{formats.NewLightCoeffs(typ, typ, coeffs)},
	}
}

func printCoeffs(bands int, coeffs []math.Vec3) {
	fmt.Printf("%4s %4s %12s %12s %12s\n", "l", "m", "r", "g", "b")
	for l := 0; l < bands; l++ {
		for m := -l; m <= l; m++ {
			c := coeffs[sh.Index(l, m)]
			fmt.Printf("%4d %4d %12.6f %12.6f %12.6f\n", l, m, c.X, c.Y, c.Z)
		}
	}
}

func cmdRotate(args []string) {
	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	axis := fs.String("axis", "0,0,1", "Rotation axis as x,y,z")
	degrees := fs.Float64("degrees", 0, "Rotation angle in degrees")
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: prttool rotate -axis x,y,z -degrees a [-o out] <lights.yaml>")
		os.Exit(1)
	}

	dir, err := parseAxis(*axis)
	if err != nil {
		fatal(err)
	}

	lights, err := formats.LoadLightsFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	q := math.QuatFromAxisAngle(dir, float32(*degrees)*math32.Pi/180)
	rotated := rotateLights(lights, q)

	if *output != "" {
		if err := rotated.SaveFile(*output); err != nil {
			fatal(err)
		}
		return
	}

	data, err := yaml.Marshal(rotated)
	if err != nil {
		fatal(err)
	}
	os.Stdout.Write(data)
}

// parseAxis parses "x,y,z" into a unit vector.
func parseAxis(s string) (math.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return math.Vec3{}, fmt.Errorf("axis %q: want x,y,z", s)
	}

	var v [3]float32
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("axis %q: %w", s, err)
		}
		v[i] = float32(f)
	}

	axis := math.Vec3FromArray(v)
	if axis.Length() == 0 {
		return math.Vec3{}, errors.New("axis must not be zero")
	}
	return axis.Normalize(), nil
}

// rotateLights returns a copy of f with every light rotated by q. Lobes are
// zonal and stay unchanged.
func rotateLights(f *formats.LightsFile, q math.Quat) *formats.LightsFile {
	r := sh.NewRotator(f.Bands)
	out := &formats.LightsFile{Bands: f.Bands, Lobes: f.Lobes}
	for _, l := range f.Lights {
		out.Lights = append(out.Lights, formats.NewLightCoeffs(l.Name, l.Type, r.Rotate(q, l.Vectors())))
	}
	return out
}
