// Package cache stores analysis results on disk keyed by input content
// and configuration, so repeat runs over the same file are free.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dygy/score-grep/internal/pipeline"
)

// ResultCache is a directory of JSON result files.
type ResultCache struct {
	dir string
}

// New opens (creating if needed) a cache rooted at dir.
func New(dir string) (*ResultCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &ResultCache{dir: dir}, nil
}

// Key derives a cache key from the raw input bytes and the analysis
// configuration. Any change to either produces a new key.
func Key(input []byte, keySignature string, cfg pipeline.Config) string {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(keySignature))
	h.Write([]byte{0})
	cfgJSON, _ := json.Marshal(cfg)
	h.Write(cfgJSON)
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// Get loads a cached result, returning (nil, false) on miss.
func (c *ResultCache) Get(key string) (*pipeline.Result, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var res pipeline.Result
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry behaves like a miss.
		return nil, false
	}
	return &res, true
}

// Put stores a result under key.
func (c *ResultCache) Put(key string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cached result: %w", err)
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// List returns the keys of all cached entries.
func (c *ResultCache) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		keys = append(keys, e.Name()[:len(e.Name())-len(".json")])
	}
	return keys, nil
}

// Clear removes every cached entry.
func (c *ResultCache) Clear() error {
	keys, err := c.List()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := os.Remove(c.path(k)); err != nil {
			return fmt.Errorf("removing cache entry %s: %w", k, err)
		}
	}
	return nil
}

func (c *ResultCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
