package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/desertthunder/playsync/internal/shared"
)

// CacheVersion is the document shape written by [SyncCache.MarshalJSON].
//
// Version 1 documents predate the version key and stored seen IDs under "seen".
const CacheVersion = 2

// SyncCache is the persisted idempotency state for one source playlist.
//
// Map keys are always source-catalog IDs and values target-catalog IDs. SeenIDs only grows.
// LastSyncTimestamp is zero until the first non-dry-run pass completes.
type SyncCache struct {
	Version           int
	LastSyncTimestamp time.Time
	SeenIDs           map[string]struct{}
	Map               map[string]string
}

// NewSyncCache returns an empty cache at the current document version.
func NewSyncCache() *SyncCache {
	return &SyncCache{
		Version: CacheVersion,
		SeenIDs: make(map[string]struct{}),
		Map:     make(map[string]string),
	}
}

// FirstRun reports whether no non-dry-run pass has completed for this playlist.
func (c *SyncCache) FirstRun() bool {
	return c.LastSyncTimestamp.IsZero()
}

// Seen reports whether the source ID was evaluated by an earlier run.
func (c *SyncCache) Seen(id string) bool {
	_, ok := c.SeenIDs[id]
	return ok
}

// MarkSeen adds ids to the seen set.
func (c *SyncCache) MarkSeen(ids ...string) {
	for _, id := range ids {
		if id != "" {
			c.SeenIDs[id] = struct{}{}
		}
	}
}

// Target returns the mapped target ID for a source ID.
func (c *SyncCache) Target(sourceID string) (string, bool) {
	id, ok := c.Map[sourceID]
	return id, ok && id != ""
}

// SetMapping records sourceID → targetID.
func (c *SyncCache) SetMapping(sourceID, targetID string) {
	c.Map[sourceID] = targetID
}

// Forget drops the mapping for one source ID, forcing it to be re-matched when it is next admitted.
// SeenIDs is left untouched.
func (c *SyncCache) Forget(sourceID string) bool {
	if _, ok := c.Map[sourceID]; !ok {
		return false
	}
	delete(c.Map, sourceID)
	return true
}

// Clone returns a deep copy.
func (c *SyncCache) Clone() *SyncCache {
	return &SyncCache{
		Version:           c.Version,
		LastSyncTimestamp: c.LastSyncTimestamp,
		SeenIDs:           maps.Clone(c.SeenIDs),
		Map:               maps.Clone(c.Map),
	}
}

type cacheDocument struct {
	Version           int               `json:"version,omitempty"`
	LastSyncTimestamp *time.Time        `json:"last_sync_timestamp"`
	SeenIDs           []string          `json:"seen_ids,omitempty"`
	Seen              []string          `json:"seen,omitempty"`
	Map               map[string]string `json:"map"`
}

// MarshalJSON writes the current document shape with sorted seen IDs for stable diffs.
func (c *SyncCache) MarshalJSON() ([]byte, error) {
	doc := cacheDocument{
		Version: CacheVersion,
		SeenIDs: slices.Sorted(maps.Keys(c.SeenIDs)),
		Map:     c.Map,
	}
	if doc.Map == nil {
		doc.Map = map[string]string{}
	}
	if doc.SeenIDs == nil {
		doc.SeenIDs = []string{}
	}
	if !c.LastSyncTimestamp.IsZero() {
		ts := c.LastSyncTimestamp.UTC()
		doc.LastSyncTimestamp = &ts
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads current and version 1 documents; newer versions are rejected.
func (c *SyncCache) UnmarshalJSON(data []byte) error {
	var doc cacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Version > CacheVersion {
		return fmt.Errorf("%w: document version %d, supported up to %d", shared.ErrCacheVersion, doc.Version, CacheVersion)
	}

	fresh := NewSyncCache()
	seen := doc.SeenIDs
	if doc.Version < CacheVersion && len(seen) == 0 {
		seen = doc.Seen
	}
	fresh.MarkSeen(seen...)
	for src, tgt := range doc.Map {
		if src != "" && tgt != "" {
			fresh.Map[src] = tgt
		}
	}
	if doc.LastSyncTimestamp != nil {
		fresh.LastSyncTimestamp = *doc.LastSyncTimestamp
	}
	*c = *fresh
	return nil
}
