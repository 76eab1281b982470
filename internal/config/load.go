package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfig names a config file when no -config flag is given.
const EnvConfig = "MESHFORGE_CONFIG"

// searchNames are tried in the working directory, in order.
var searchNames = []string{"meshforge.yaml", "meshforge.yml", ".meshforge.yaml"}

// Load builds the effective config: defaults, then the config file, then
// flags. A file named by -config or MESHFORGE_CONFIG must exist; the
// search locations are optional.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := locate()
	if path != "" {
		if err := decodeFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
		}
	}

	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// locate returns the config file to read and whether the user named it.
func locate() (path string, explicit bool) {
	if p := ConfigPath(); p != "" {
		return p, true
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true
	}
	return findConfigFile(), false
}

// findConfigFile returns the first existing file among the working
// directory names and the user config file, or "".
func findConfigFile() string {
	candidates := append([]string(nil), searchNames...)
	candidates = append(candidates, filepath.Join(ConfigDir(), "config.yaml"))
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ConfigDir returns the per-user meshforge config directory. Without a
// usable home it falls back to .meshforge under the working directory.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "meshforge")
	}
	dir, err := filepath.Abs(".meshforge")
	if err != nil {
		return ".meshforge"
	}
	return dir
}

// decodeFile merges the YAML file at path into cfg. Unknown keys are
// rejected; an empty file changes nothing.
func decodeFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
