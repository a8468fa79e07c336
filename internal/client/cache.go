package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Cache is a persistent key/value store scoped to the client device,
// the systems-side stand-in for browser local storage. Writes to
// different keys are not atomic together. Read never fails: a missing
// or unreadable value reports ok=false.
type Cache interface {
	Read(key string) ([]byte, bool)
	Write(key string, value []byte) error
	Remove(key string) error
}

// readJSON decodes a cached JSON value into out. Absent or corrupt
// values leave out untouched and report false.
func readJSON(cache Cache, key string, out any) bool {
	raw, ok := cache.Read(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false
	}
	return true
}

func writeJSON(cache Cache, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cache.Write(key, raw)
}

// FileCache persists each key as a JSON file in a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates the backing directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) Read(key string) ([]byte, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (c *FileCache) Write(key string, value []byte) error {
	path := c.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (c *FileCache) Remove(key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *FileCache) path(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(c.dir, sanitized+".json")
}

// MemoryCache is an in-process cache for tests.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string][]byte)}
}

func (c *MemoryCache) Read(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	raw, ok := c.values[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true
}

func (c *MemoryCache) Write(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	c.values[key] = stored
	return nil
}

func (c *MemoryCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}
