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

	"github.com/desertthunder/watchwave/internal/models"
	"github.com/desertthunder/watchwave/internal/services"
	"github.com/desertthunder/watchwave/internal/shared"
)

// MockCatalog is a test double for [services.Catalog] serving a fixed set of titles.
//
// Details looks titles up by kind and id; Fail, when set, is returned by every call.
type MockCatalog struct {
	mu        sync.Mutex
	Titles    []models.Title
	GenreList []models.Genre
	Fail      error
	Calls     int
}

var _ services.Catalog = (*MockCatalog)(nil)

func (m *MockCatalog) call() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Fail
}

func (m *MockCatalog) page(kind models.MediaKind) *models.Page {
	out := &models.Page{Page: 1, TotalPages: 1, Results: []models.Title{}}
	for _, t := range m.Titles {
		if kind == "" || t.Kind == kind {
			out.Results = append(out.Results, t)
		}
	}
	out.TotalResults = len(out.Results)
	return out
}

func (m *MockCatalog) Trending(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.page(kind), nil
}

func (m *MockCatalog) TopRated(ctx context.Context, kind models.MediaKind, page int) (*models.Page, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.page(kind), nil
}

func (m *MockCatalog) Upcoming(ctx context.Context, page int) (*models.Page, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.page(models.KindMovie), nil
}

func (m *MockCatalog) Discover(ctx context.Context, kind models.MediaKind, f services.Filters) (*models.Page, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.page(kind), nil
}

func (m *MockCatalog) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.page(""), nil
}

func (m *MockCatalog) Details(ctx context.Context, kind models.MediaKind, id int) (*models.Title, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	for _, t := range m.Titles {
		if t.ID == id && t.Kind == kind {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %d", shared.ErrTitleNotFound, kind, id)
}

func (m *MockCatalog) Genres(ctx context.Context, kind models.MediaKind) ([]models.Genre, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	return m.GenreList, nil
}

// MockRemoteWatchlist is a test double for [services.RemoteWatchlist].
type MockRemoteWatchlist struct {
	Err     error
	Created []models.Title
}

func (m *MockRemoteWatchlist) Create(ctx context.Context, t models.Title) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, t)
	return nil
}

// FailingStore is a key-value store whose reads and writes can be made to fail.
type FailingStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	FailGet  bool
	FailSet  bool
	FailDel  bool
	FailKey  string // when set, only writes to this key fail
	SetCalls int
}

// NewFailingStore creates a [FailingStore] seeded with data.
func NewFailingStore(data map[string][]byte) *FailingStore {
	if data == nil {
		data = make(map[string][]byte)
	}
	return &FailingStore{data: data}
}

func (f *FailingStore) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet {
		return nil, false, fmt.Errorf("%w: key %s: disk unavailable", shared.ErrStorageRead, key)
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FailingStore) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetCalls++
	if f.FailSet || (f.FailKey != "" && f.FailKey == key) {
		return fmt.Errorf("%w: key %s: disk full", shared.ErrStorageWrite, key)
	}
	f.data[key] = append([]byte(nil), value...)
	return nil
}

func (f *FailingStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDel {
		return fmt.Errorf("%w: delete key %s", shared.ErrStorageWrite, key)
	}
	delete(f.data, key)
	return nil
}

// Value returns what is currently stored under key.
func (f *FailingStore) Value(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// Matrix, Dune and Severance are catalog fixtures shared across tests.
var (
	Matrix = models.Title{
		ID:          603,
		Kind:        models.KindMovie,
		DisplayName: "The Matrix",
		PosterPath:  "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
		Overview:    "Set in the 22nd century, The Matrix tells the story of a computer hacker.",
		ReleaseDate: "1999-03-30",
		VoteAverage: 8.2,
	}
	Dune = models.Title{
		ID:          438631,
		Kind:        models.KindMovie,
		DisplayName: "Dune",
		ReleaseDate: "2021-09-15",
		VoteAverage: 7.8,
	}
	Severance = models.Title{
		ID:          95396,
		Kind:        models.KindSeries,
		DisplayName: "Severance",
		ReleaseDate: "2022-02-17",
		VoteAverage: 8.4,
	}
)

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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
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
