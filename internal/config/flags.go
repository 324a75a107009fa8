package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagScene    = flag.String("scene", "", "Scene description to bake")
	flagBounces  = flag.Int("bounces", -1, "Indirect bounces (negative keeps the configured value)")
	flagWorkers  = flag.Int("workers", 0, "Worker goroutines (0 keeps the configured value)")
	flagRebake   = flag.Bool("rebake", false, "Ignore existing transfer caches")
	flagCacheDir = flag.String("cache-dir", "", "Transfer cache directory")
	flagSamples  = flag.Int("samples", 0, "Samples per axis of the stratified grid")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Scene.Path = *flagScene
	}
	if *flagBounces >= 0 {
		cfg.Bake.Bounces = *flagBounces
	}
	if *flagWorkers > 0 {
		cfg.Bake.Workers = *flagWorkers
	}
	if *flagRebake {
		cfg.Cache.Rebake = true
	}
	if *flagCacheDir != "" {
		cfg.Cache.Dir = *flagCacheDir
	}
	if *flagSamples > 0 {
		cfg.SH.SqrtSamples = *flagSamples
	}
}
