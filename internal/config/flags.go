package config

import (
	"flag"
	"strings"
)

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagFormat = flag.String("format", "", "Output format: glb or gltf")
	flagOut    = flag.String("out", "", "Output directory")
	flagGRF    = flag.String("grf", "", "Comma-separated GRF archives, replacing the configured ones")
	flagData   = flag.String("data", "", "Comma-separated data directories, replacing the configured ones")
	flagTwo    = flag.Bool("two-sided", false, "Emit back faces for every face")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flags.
func Args() []string {
	return flag.Args()
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
	if *flagFormat != "" {
		cfg.Output.Format = strings.ToLower(*flagFormat)
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagGRF != "" {
		cfg.Data.GRFPaths = splitList(*flagGRF)
	}
	if *flagData != "" {
		cfg.Data.Dirs = splitList(*flagData)
	}
	if *flagTwo {
		cfg.Import.ForceTwoSided = true
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
