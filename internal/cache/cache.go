// Package cache provides the durable metadata lookup cache: a JSON file
// mapping normalized lookup keys to terminal lookup outcomes.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Entry is one cached lookup outcome. Entries are terminal: once a key has
// an entry, no variant (including not_found and error) ever triggers another
// network attempt for that key.
type Entry struct {
	Title      string               `json:"title"`
	ResultKind model.ResultKind     `json:"result_kind"`
	EnrichedAt time.Time            `json:"enriched_at"`
	Metadata   *model.MovieMetadata `json:"metadata,omitempty"`
}

// Stats summarizes cache contents by outcome variant.
type Stats struct {
	Total    int
	Matched  int
	NotFound int
	Errored  int
}

// FileCache stores entries in a single JSON file, loaded fully on open and
// rewritten in full on every write. Call volume is bounded by the external
// API quota, so full rewrites stay cheap. Not safe for concurrent use within
// a process; a file lock guards against concurrent process instances.
type FileCache struct {
	path    string
	lock    *flock.Flock
	entries map[string]Entry
}

// Key derives the cache key for a title and optional release year (0 = no
// year). Year-less and year-qualified lookups for the same title cache
// independently.
func Key(title string, year int) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	if year > 0 {
		return fmt.Sprintf("%s|%d", normalized, year)
	}
	return normalized
}

// Open loads the cache at path, creating parent directories as needed. A
// corrupt or unreadable cache file is non-fatal: the cache starts empty and
// the condition is logged. Open fails if another process holds the cache.
func Open(path string) (*FileCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "cache: create directory for %s", path)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "cache: lock %s", path)
	}
	if !locked {
		return nil, eris.Errorf("cache: %s is locked by another process", path)
	}

	c := &FileCache{
		path:    path,
		lock:    lock,
		entries: make(map[string]Entry),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		zap.L().Info("no existing cache", zap.String("path", path))
		return c, nil
	}
	if err != nil {
		zap.L().Warn("failed to read cache, starting fresh",
			zap.String("path", path),
			zap.Error(err),
		)
		return c, nil
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		zap.L().Warn("cache file corrupt, starting fresh",
			zap.String("path", path),
			zap.Error(err),
		)
		c.entries = make(map[string]Entry)
		return c, nil
	}

	zap.L().Info("loaded cache",
		zap.String("path", path),
		zap.Int("entries", len(c.entries)),
	)
	return c, nil
}

// Get returns the entry for key, if present.
func (c *FileCache) Get(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Put stores an entry and persists the full cache before returning. A
// persist failure is returned to the caller: silently losing a write would
// cause a duplicate rate-limited network call in a later run.
func (c *FileCache) Put(key string, e Entry) error {
	c.entries[key] = e
	return c.persist()
}

// Len returns the number of cached entries.
func (c *FileCache) Len() int {
	return len(c.entries)
}

// Stats counts entries per outcome variant.
func (c *FileCache) Stats() Stats {
	s := Stats{Total: len(c.entries)}
	for _, e := range c.entries {
		switch e.ResultKind {
		case model.ResultMatch:
			s.Matched++
		case model.ResultNotFound:
			s.NotFound++
		case model.ResultError:
			s.Errored++
		}
	}
	return s
}

// Close releases the process lock.
func (c *FileCache) Close() error {
	return c.lock.Unlock()
}

// persist rewrites the cache file in full, via a temp file and rename so a
// crash mid-write cannot corrupt the existing file. Keys stay human-diffable
// (indented JSON, sorted by Go's map marshaling).
func (c *FileCache) persist() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: marshal")
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "cache: write %s", tmp)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return eris.Wrapf(err, "cache: rename %s", c.path)
	}
	return nil
}
