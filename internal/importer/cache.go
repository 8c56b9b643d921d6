package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/tabular"
)

// SnapshotCache holds the most recently loaded dataset snapshot, keyed by
// a content fingerprint of the extract location. Invalidation is
// explicit: the importer clears the cache after every run, and a changed
// fingerprint misses naturally.
type SnapshotCache struct {
	mu    sync.RWMutex
	fp    string
	table *tabular.Table
}

// NewSnapshotCache returns an empty cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

// Fingerprint derives a stable content key from a location's listing:
// the location id plus every child's id and modification timestamp,
// order-independent.
func Fingerprint(locationID string, recs []models.FileRecord) string {
	parts := make([]string, 0, len(recs))
	for _, rec := range recs {
		parts = append(parts, rec.ID+":"+rec.ModifiedTime)
	}
	sort.Strings(parts)

	h := sha256.New()
	h.Write([]byte(locationID))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached snapshot when the fingerprint matches.
func (c *SnapshotCache) Get(fp string) (*tabular.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table == nil || c.fp != fp {
		return nil, false
	}
	return c.table, true
}

// Put stores a snapshot under its fingerprint, replacing any previous
// entry.
func (c *SnapshotCache) Put(fp string, t *tabular.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fp = fp
	c.table = t
}

// Invalidate drops the cached snapshot.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fp = ""
	c.table = nil
}
