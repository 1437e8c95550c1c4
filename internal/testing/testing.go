// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/models"
)

// ErrStorage is returned by [FailingStore].
var ErrStorage = errors.New("storage unavailable")

// FailingStore is a [kv.Store] whose operations all fail.
type FailingStore struct{}

func (f *FailingStore) Get(context.Context, string) (string, error) { return "", ErrStorage }
func (f *FailingStore) Set(context.Context, string, string) error { return ErrStorage }
func (f *FailingStore) Delete(context.Context, string) error { return ErrStorage }
func (f *FailingStore) MultiDelete(context.Context, ...string) error { return ErrStorage }
func (f *FailingStore) Close() error { return nil }

// WriteFailingStore reads from an in-memory store but fails every write.
type WriteFailingStore struct {
	*kv.MemoryStore
}

func NewWriteFailingStore() *WriteFailingStore {
	return &WriteFailingStore{MemoryStore: kv.NewMemoryStore()}
}

func (w *WriteFailingStore) Set(context.Context, string, string) error { return ErrStorage }
func (w *WriteFailingStore) Delete(context.Context, string) error { return ErrStorage }
func (w *WriteFailingStore) MultiDelete(context.Context, ...string) error { return ErrStorage }

// GatedStore blocks Get until Release is called.
type GatedStore struct {
	kv.Store

	once sync.Once
	gate chan struct{}
	mu   sync.Mutex
	gets int
}

func NewGatedStore(s kv.Store) *GatedStore {
	return &GatedStore{Store: s, gate: make(chan struct{})}
}

func (g *GatedStore) Get(ctx context.Context, key string) (string, error) {
	g.mu.Lock()
	g.gets++
	g.mu.Unlock()

	select {
	case <-g.gate:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.Store.Get(ctx, key)
}

// Release unblocks pending and future reads.
func (g *GatedStore) Release() { g.once.Do(func() { close(g.gate) }) }

// Gets reports how many reads have started.
func (g *GatedStore) Gets() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gets
}

// MockAuthService is a test double for services.AuthService
type MockAuthService struct {
	Token   models.AuthToken
	Profile models.Profile
	Err     error

	mu         sync.Mutex
	Logins     []models.Credentials
	Registered []models.Registration
}

func (m *MockAuthService) Login(_ context.Context, creds models.Credentials) (*models.AuthToken, error) {
	m.mu.Lock()
	m.Logins = append(m.Logins, creds)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	tok := m.Token
	if tok.Username == "" {
		tok.Username = creds.Username
	}
	return &tok, nil
}

func (m *MockAuthService) Register(_ context.Context, reg models.Registration) (*models.AuthToken, error) {
	m.mu.Lock()
	m.Registered = append(m.Registered, reg)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	tok := m.Token
	tok.Username = reg.Username
	return &tok, nil
}

func (m *MockAuthService) Me(context.Context) (*models.Profile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p := m.Profile
	return &p, nil
}

// MockCatalogService is a test double for services.CatalogService
type MockCatalogService struct {
	Courses []models.Course
	ByKey   map[string]models.CourseDetails
	Err     error
}

func (m *MockCatalogService) Search(_ context.Context, query string, limit int) ([]models.Course, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	courses := m.Courses
	if limit > 0 && len(courses) > limit {
		courses = courses[:limit]
	}
	return courses, nil
}

func (m *MockCatalogService) Details(_ context.Context, key string) (*models.CourseDetails, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	d, ok := m.ByKey[key]
	if !ok {
		return nil, errors.New("course not found")
	}
	return &d, nil
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

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
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
