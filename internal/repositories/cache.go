package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/gofrs/flock"
)

// lockRetryDelay is how often [FileCacheStore] polls a held lock.
const lockRetryDelay = 100 * time.Millisecond

// CacheStore loads and saves the [models.SyncCache] for a source playlist.
//
// A playlist without a stored cache yields a fresh, empty cache.
type CacheStore interface {
	Load(ctx context.Context, playlistID string) (*models.SyncCache, error)
	Save(ctx context.Context, playlistID string, cache *models.SyncCache) error
}

// FileCacheStore keeps one JSON document per playlist in a directory.
//
// Writes hold an exclusive lock file and replace the document through a temp file and rename,
// so readers never observe a partial document.
type FileCacheStore struct {
	dir         string
	lockTimeout time.Duration
}

// NewFileCacheStore creates a store rooted at dir. The directory is created on first save.
func NewFileCacheStore(dir string) *FileCacheStore {
	return &FileCacheStore{dir: shared.ExpandPath(dir), lockTimeout: 5 * time.Second}
}

// Path returns the document path for a playlist.
func (s *FileCacheStore) Path(playlistID string) string {
	return filepath.Join(s.dir, cacheFileName(playlistID))
}

// Load reads the cache for playlistID.
func (s *FileCacheStore) Load(_ context.Context, playlistID string) (*models.SyncCache, error) {
	data, err := os.ReadFile(s.Path(playlistID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.NewSyncCache(), nil
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheLoad, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return models.NewSyncCache(), nil
	}

	var cache models.SyncCache
	if err := json.Unmarshal(data, &cache); err != nil {
		if errors.Is(err, shared.ErrCacheVersion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: parse %s: %v", shared.ErrCacheLoad, s.Path(playlistID), err)
	}
	return &cache, nil
}

// Save writes the cache for playlistID atomically under an exclusive file lock.
func (s *FileCacheStore) Save(ctx context.Context, playlistID string, cache *models.SyncCache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", shared.ErrCachePersist, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create cache directory: %v", shared.ErrCachePersist, err)
	}

	path := s.Path(playlistID)
	lock := flock.New(path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !ok {
		return fmt.Errorf("%w: %s", shared.ErrCacheLocked, path)
	}
	defer lock.Unlock()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", shared.ErrCachePersist, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %v", shared.ErrCachePersist, err)
	}
	return nil
}

// cacheFileName maps a playlist ID onto a safe file name.
func cacheFileName(playlistID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, playlistID)
	if safe == "" {
		safe = "_"
	}
	return safe + ".json"
}

// SQLiteCacheStore keeps cache documents in the sync_caches table.
type SQLiteCacheStore struct {
	db *sql.DB
}

// NewSQLiteCacheStore creates a new SQLiteCacheStore with the given database connection
func NewSQLiteCacheStore(db *sql.DB) *SQLiteCacheStore {
	return &SQLiteCacheStore{db: db}
}

// Load reads the cache for playlistID.
func (s *SQLiteCacheStore) Load(ctx context.Context, playlistID string) (*models.SyncCache, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM sync_caches WHERE playlist_id = ?`, playlistID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return models.NewSyncCache(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheLoad, err)
	}

	var cache models.SyncCache
	if err := json.Unmarshal([]byte(document), &cache); err != nil {
		if errors.Is(err, shared.ErrCacheVersion) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: parse document for %s: %v", shared.ErrCacheLoad, playlistID, err)
	}
	return &cache, nil
}

// Save upserts the cache document for playlistID.
func (s *SQLiteCacheStore) Save(ctx context.Context, playlistID string, cache *models.SyncCache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", shared.ErrCachePersist, err)
	}

	query := `
		INSERT INTO sync_caches (playlist_id, version, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(playlist_id) DO UPDATE SET
			version = excluded.version,
			document = excluded.document,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, playlistID, models.CacheVersion, string(data), time.Now()); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCachePersist, err)
	}
	return nil
}

// List returns the playlist IDs that have a stored cache, most recently updated first.
func (s *SQLiteCacheStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT playlist_id FROM sync_caches ORDER BY updated_at DESC, playlist_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan cache row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ForgetMapping removes one source ID from the stored map of playlistID.
// It reports false when no mapping existed; SeenIDs is never modified.
func ForgetMapping(ctx context.Context, store CacheStore, playlistID, sourceID string) (bool, error) {
	cache, err := store.Load(ctx, playlistID)
	if err != nil {
		return false, err
	}
	if !cache.Forget(sourceID) {
		return false, nil
	}
	if err := store.Save(ctx, playlistID, cache); err != nil {
		return false, err
	}
	return true, nil
}
