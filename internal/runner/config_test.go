package runner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, root, err := LoadConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if root != dir {
		t.Errorf("root = %q, want %q", root, dir)
	}
	if cfg.Paths.Tests != filepath.Join("tests", "suite") {
		t.Errorf("tests dir = %q", cfg.Paths.Tests)
	}
	if cfg.Run.Jobs != 0 || cfg.Run.Update {
		t.Errorf("run defaults = %+v", cfg.Run)
	}
}

func TestLoadConfigWalksUp(t *testing.T) {
	dir := t.TempDir()
	manifest := "[paths]\ntests = \"fixtures\"\n\n[run]\njobs = 4\n"
	if err := os.WriteFile(filepath.Join(dir, "vellum.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, root, err := LoadConfig(nested)
	if err != nil {
		t.Fatal(err)
	}
	if root != dir {
		t.Errorf("root = %q, want %q", root, dir)
	}
	if cfg.Paths.Tests != "fixtures" {
		t.Errorf("tests dir = %q", cfg.Paths.Tests)
	}
	if cfg.Run.Jobs != 4 {
		t.Errorf("jobs = %d", cfg.Run.Jobs)
	}
	// Unset keys keep their defaults.
	if cfg.Paths.Refs != filepath.Join("tests", "ref") {
		t.Errorf("refs dir = %q", cfg.Paths.Refs)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vellum.toml"), []byte("[paths]\ntypo = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadConfig(dir); err == nil {
		t.Fatal("expected an unknown-key error")
	}
}

func TestResultCacheRoundtrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cache, err := OpenResultCache("vellum-test")
	if err != nil {
		t.Fatal(err)
	}

	key := NewCacheKey([]byte("fixture"), []byte("ref"), "v1")
	if cache.Passed(key) {
		t.Fatal("empty cache must miss")
	}
	if err := cache.RecordPass(key); err != nil {
		t.Fatal(err)
	}
	if !cache.Passed(key) {
		t.Fatal("recorded pass must hit")
	}

	// A different fixture produces a different key.
	other := NewCacheKey([]byte("fixture2"), []byte("ref"), "v1")
	if cache.Passed(other) {
		t.Fatal("unrelated key must miss")
	}

	if err := cache.Invalidate(key); err != nil {
		t.Fatal(err)
	}
	if cache.Passed(key) {
		t.Fatal("invalidated key must miss")
	}
	if err := cache.Invalidate(key); err != nil {
		t.Fatal("double invalidation must be a no-op")
	}
}
