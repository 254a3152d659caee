// Package runner discovers test fixtures, dispatches them across
// workers, and aggregates the pass/fail report.
package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the harness configuration read from vellum.toml at the
// project root. Every field has a working default, so the file may be
// absent or partial.
type Config struct {
	Paths PathsConfig `toml:"paths"`
	Run   RunConfig   `toml:"run"`
}

type PathsConfig struct {
	// Tests is the fixture directory, relative to the project root.
	Tests string `toml:"tests"`
	// Refs holds the golden reference images.
	Refs string `toml:"refs"`
	// Pdf is where --pdf exports land.
	Pdf string `toml:"pdf"`
}

type RunConfig struct {
	// Jobs caps the worker count; zero means one per CPU.
	Jobs int `toml:"jobs"`
	// Update accepts mismatched golden images by default.
	Update bool `toml:"update"`
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			Tests: filepath.Join("tests", "suite"),
			Refs:  filepath.Join("tests", "ref"),
			Pdf:   filepath.Join("tests", "pdf"),
		},
	}
}

// FindVellumToml walks up from startDir to locate vellum.toml.
func FindVellumToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "vellum.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfig resolves the project root and its configuration. Without a
// manifest the start directory itself is the root and defaults apply.
func LoadConfig(startDir string) (Config, string, error) {
	cfg := DefaultConfig()

	manifestPath, ok, err := FindVellumToml(startDir)
	if err != nil {
		return cfg, "", err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return cfg, "", err
		}
		return cfg, root, nil
	}

	meta, err := toml.DecodeFile(manifestPath, &cfg)
	if err != nil {
		return cfg, "", fmt.Errorf("failed to parse %s: %w", manifestPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, "", fmt.Errorf("%s: unknown key %q", manifestPath, undecoded[0].String())
	}
	return cfg, filepath.Dir(manifestPath), nil
}
