// Package repositories persists sync caches and run history.
//
// Key Implementations:
//   - [FileCacheStore] : one JSON document per playlist, replaced atomically under a lock file
//   - [SQLiteCacheStore] : the same documents stored in the sync_caches table
//   - [RunRepository] : one row per completed reconciliation leg
//
// Both cache stores satisfy [CacheStore] and return an empty cache for playlists never synced.
// Sequence numbers provide stable, human-readable ordering of runs independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
