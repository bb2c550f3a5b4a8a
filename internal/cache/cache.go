// Package cache holds the per-file snapshots of the last successfully
// synchronized marker set. The cache exists for exactly one purpose:
// detecting "present before, absent now" so the engine can classify
// remote archivals. It lives in process memory only; after a restart it
// is re-derived from remote state.
package cache

import (
	"sync"

	"github.com/nikolaykusch/TODOtoNOTION/internal/marker"
)

// Cache maps a file key to the identifier -> record snapshot taken at the
// end of the file's last successful pass. Reads and replacements are
// atomic with respect to each other; a concurrent pass never observes a
// partially written snapshot.
type Cache struct {
	mu    sync.RWMutex
	files map[string]map[string]marker.Record
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{files: make(map[string]map[string]marker.Record)}
}

// Get returns a copy of the snapshot for fileKey. A file that has never
// synced yields an empty map.
func (c *Cache) Get(fileKey string) map[string]marker.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]marker.Record, len(c.files[fileKey]))
	for id, rec := range c.files[fileKey] {
		out[id] = rec
	}
	return out
}

// Set replaces the snapshot for fileKey wholesale. Entries for markers
// that moved or disappeared are discarded by the replacement; there is no
// merge and no other eviction policy.
func (c *Cache) Set(fileKey string, records map[string]marker.Record) {
	snap := make(map[string]marker.Record, len(records))
	for id, rec := range records {
		snap[id] = rec
	}

	c.mu.Lock()
	c.files[fileKey] = snap
	c.mu.Unlock()
}

// Keys returns the identifiers recorded for fileKey.
func (c *Cache) Keys(fileKey string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.files[fileKey]))
	for id := range c.files[fileKey] {
		keys = append(keys, id)
	}
	return keys
}

// Files returns the number of files with a recorded snapshot.
func (c *Cache) Files() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}
