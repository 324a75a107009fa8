// Package main is the entry point for the PRT baker.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-prt/internal/bake"
	"github.com/Faultbox/midgard-prt/internal/config"
	"github.com/Faultbox/midgard-prt/internal/logger"
	"github.com/Faultbox/midgard-prt/internal/scene"
	"github.com/Faultbox/midgard-prt/pkg/formats"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard PRT Baker ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	desc, err := scene.LoadDescription(cfg.Scene.Path)
	if err != nil {
		return err
	}

	stop := logger.Timed(logger.L(), "scene build", zap.String("scene", cfg.Scene.Path))
	s, err := desc.Build(filepath.Dir(cfg.Scene.Path), cfg.Bake.TerminationSize)
	stop()
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	stats := s.Index.Stats()
	logger.Info("scene ready",
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("lights", len(s.Lights)),
		zap.Int("vertices", s.VertexCount()),
		zap.Int("triangles", s.TriangleCount()),
		zap.Int("tree_nodes", stats.Nodes),
		zap.Int("tree_depth", stats.MaxDepth))

	baker := bake.NewBaker(bakeOptions(cfg))
	result, err := baker.Bake(s)
	if err != nil {
		// The transfer is still usable, only the cache is incomplete
		logger.Warn("transfer cache not saved", zap.Error(err))
	}

	out := exportLights(desc, s, result, cfg.SH.Bands)
	if err := out.SaveFile(cfg.Scene.Lights); err != nil {
		return fmt.Errorf("writing light coefficients: %w", err)
	}

	logger.Info("light coefficients written",
		zap.String("path", cfg.Scene.Lights),
		zap.Bool("from_cache", result.FromCache),
		zap.Duration("elapsed", result.Stats.Duration))
	return nil
}

func bakeOptions(cfg *config.Config) bake.Options {
	return bake.Options{
		Bands:       cfg.SH.Bands,
		SqrtSamples: cfg.SH.SqrtSamples,
		Bounces:     cfg.Bake.Bounces,
		Workers:     cfg.Bake.Workers,
		RayBias:     cfg.Bake.RayBias,
		Seed:        cfg.SH.Seed,
		CacheDir:    cfg.Cache.Dir,
		Rebake:      cfg.Cache.Rebake,
		Logger:      logger.L(),
	}
}

// exportLights collects the projected lights and glossy lobes of a bake.
func exportLights(desc *scene.Description, s *scene.Scene, result *bake.Result, bands int) *formats.LightsFile {
	out := &formats.LightsFile{Bands: bands}

	for i, coeffs := range result.Lights {
		typ := scene.LightName(s.Lights[i])
		name := desc.Lights[i].Name
		if name == "" {
			name = fmt.Sprintf("%s%d", typ, i)
		}
		out.Lights = append(out.Lights, formats.NewLightCoeffs(name, typ, coeffs))
	}

	for i, lobe := range result.Lobes {
		g, ok := s.Meshes[i].Material.(scene.Glossy)
		if !ok || lobe == nil {
			continue
		}
		out.Lobes = append(out.Lobes, formats.LobeCoeffs{
			Mesh:     s.Meshes[i].Name,
			Exponent: g.Exponent,
			Weights:  lobe,
		})
	}
	return out
}
