package runner

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version; bump when cachePayload changes shape.
const cacheSchemaVersion uint16 = 1

// ResultCache remembers passing files on disk so unchanged fixtures are
// skipped on the next run. Only passes are cached: a failure must rerun
// until it is fixed. Thread-safe for concurrent access.
type ResultCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema uint16
	Passed bool
}

// CacheKey identifies one file run: fixture content, reference image
// content, and the settings that affect the outcome.
type CacheKey [sha256.Size]byte

func NewCacheKey(fixture, ref []byte, settings string) CacheKey {
	h := sha256.New()
	h.Write(fixture)
	h.Write([]byte{0})
	h.Write(ref)
	h.Write([]byte{0})
	h.Write([]byte(settings))
	var key CacheKey
	copy(key[:], h.Sum(nil))
	return key
}

// OpenResultCache initializes the cache at the standard user location.
func OpenResultCache(app string) (*ResultCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ResultCache{dir: dir}, nil
}

func (c *ResultCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, hex.EncodeToString(key[:])+".msgpack")
}

// Passed reports whether the key is recorded as a pass.
func (c *ResultCache) Passed(key CacheKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	raw, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return false
	}
	var payload cachePayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return false
	}
	return payload.Schema == cacheSchemaVersion && payload.Passed
}

// RecordPass stores a pass for the key.
func (c *ResultCache) RecordPass(key CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := msgpack.Marshal(cachePayload{Schema: cacheSchemaVersion, Passed: true})
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	path := c.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Invalidate removes a recorded result, if any.
func (c *ResultCache) Invalidate(key CacheKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.pathFor(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
