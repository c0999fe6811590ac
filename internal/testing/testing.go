// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/playsync/internal/models"
)

// Insertion records one call to [MockCatalog.Insert].
type Insertion struct {
	PlaylistID string
	ItemID     string
}

// MockCatalog is an in-memory test double for services.Catalog.
//
// Playlists hold the items returned by Items. Search returns SearchResults[query] (or the result of
// SearchFunc when set), truncated to the requested limit. Insert appends the known item with the given
// ID to the playlist and records the call; InsertErrs makes selected IDs fail.
type MockCatalog struct {
	mu sync.Mutex

	CatalogName   string
	Playlists     map[string][]models.Item
	SearchResults map[string][]models.Item
	SearchFunc    func(query string, limit int) ([]models.Item, error)
	InsertErrs    map[string]error
	ItemsErr      error
	SearchErr     error

	index    map[string]models.Item
	Inserts  []Insertion
	Searches []string
	clock    time.Time
}

// NewMockCatalog creates an empty catalog named name.
func NewMockCatalog(name string) *MockCatalog {
	return &MockCatalog{
		CatalogName:   name,
		Playlists:     make(map[string][]models.Item),
		SearchResults: make(map[string][]models.Item),
		InsertErrs:    make(map[string]error),
		index:         make(map[string]models.Item),
		clock:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddItems appends items to a playlist and makes them insertable elsewhere by ID.
func (m *MockCatalog) AddItems(playlistID string, items ...models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.index[it.ID] = it
	}
	m.Playlists[playlistID] = append(m.Playlists[playlistID], items...)
}

// SetSearch registers the hits returned for query.
func (m *MockCatalog) SetSearch(query string, hits ...models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range hits {
		m.index[it.ID] = it
	}
	m.SearchResults[query] = hits
}

// Register makes items insertable without attaching them to a playlist or query.
func (m *MockCatalog) Register(items ...models.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		m.index[it.ID] = it
	}
}

func (m *MockCatalog) Name() string { return m.CatalogName }

func (m *MockCatalog) Items(ctx context.Context, playlistID string) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	items, ok := m.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, ErrMockNotFound)
	}
	return append([]models.Item(nil), items...), nil
}

func (m *MockCatalog) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Searches = append(m.Searches, query)
	fn, err, hits := m.SearchFunc, m.SearchErr, m.SearchResults[query]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(query, limit)
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return append([]models.Item(nil), hits...), nil
}

func (m *MockCatalog) Insert(ctx context.Context, playlistID, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.InsertErrs[itemID]; err != nil {
		return err
	}
	item, ok := m.index[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, ErrMockNotFound)
	}
	m.clock = m.clock.Add(time.Second)
	item.AddedAt = m.clock
	m.Playlists[playlistID] = append(m.Playlists[playlistID], item)
	m.Inserts = append(m.Inserts, Insertion{PlaylistID: playlistID, ItemID: itemID})
	return nil
}

// InsertedIDs returns the IDs passed to Insert, in call order.
func (m *MockCatalog) InsertedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.Inserts))
	for i, ins := range m.Inserts {
		ids[i] = ins.ItemID
	}
	return ids
}

// ErrMockNotFound is returned for unknown playlists and items.
var ErrMockNotFound = errors.New("not found")

// MockCacheStore is an in-memory cache store whose Save can be made to fail.
type MockCacheStore struct {
	mu      sync.Mutex
	Caches  map[string]*models.SyncCache
	LoadErr error
	SaveErr error
	Saves   int
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{Caches: make(map[string]*models.SyncCache)}
}

func (s *MockCacheStore) Load(ctx context.Context, playlistID string) (*models.SyncCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if c, ok := s.Caches[playlistID]; ok {
		return c.Clone(), nil
	}
	return models.NewSyncCache(), nil
}

func (s *MockCacheStore) Save(ctx context.Context, playlistID string, cache *models.SyncCache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Saves++
	s.Caches[playlistID] = cache.Clone()
	return nil
}

// MockRunRecorder collects run records in memory.
type MockRunRecorder struct {
	Records []models.RunRecord
	Err     error
}

func (r *MockRunRecorder) Record(ctx context.Context, rec *models.RunRecord) error {
	if r.Err != nil {
		return r.Err
	}
	r.Records = append(r.Records, *rec)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("Path should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
