// Package favorites owns the user's favorite courses.
//
// The in-memory collection is authoritative. The copy under the favorites key is written
// behind it by a [kv.Writer], so it trails the collection and a failed write is only logged.
package favorites

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// DefaultKey is the storage key used when Options.Key is empty.
const DefaultKey = "favorites"

// Options configures a [Store].
type Options struct {
	Key     string
	Timeout time.Duration // bounds the startup read and each write
	Logger  *log.Logger
}

// Store is the favorites collection. It is safe for concurrent use.
type Store struct {
	key    string
	logger *log.Logger
	writer *kv.Writer

	mu    sync.RWMutex
	items []models.Course

	ready     chan struct{}
	closeOnce sync.Once
}

// Open returns an empty store and starts loading the persisted collection in the background.
//
// Readers see the empty collection until the load finishes. Toggle waits for it.
func Open(ctx context.Context, store kv.Store, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	logger := shared.WithLogger(opts.Logger, "component", "favorites")

	s := &Store{
		key:    opts.Key,
		logger: logger,
		writer: kv.NewWriter(store, opts.Key, opts.Timeout, logger),
		items:  []models.Course{},
		ready:  make(chan struct{}),
	}
	go s.load(ctx, store, opts.Timeout)
	return s
}

func (s *Store) load(ctx context.Context, store kv.Store, timeout time.Duration) {
	defer close(s.ready)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, ok := kv.Lookup(ctx, store, s.key)
	if !ok {
		s.logger.Debug("no persisted favorites")
		return
	}

	items, err := Decode(raw)
	if err != nil {
		s.logger.Warn("discarding malformed favorites", "error", err)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.logger.Debug("favorites loaded", "count", len(items))
}

// Ready is closed once the startup load has finished, successfully or not.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Toggle removes the course with item.Key if present, otherwise appends item.
// It reports whether the course is a favorite afterwards.
func (s *Store) Toggle(item models.Course) bool {
	<-s.ready

	s.mu.Lock()
	defer s.mu.Unlock()

	added := true
	if i := s.indexOf(item.Key); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		added = false
	} else {
		s.items = append(s.items, item)
	}

	snapshot, err := Encode(s.items)
	if err != nil {
		s.logger.Warn("encode favorites", "error", err)
		return added
	}
	s.writer.Enqueue(snapshot)
	return added
}

// Contains reports whether key is a favorite.
func (s *Store) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(key) >= 0
}

// List returns a copy of the collection in insertion order.
func (s *Store) List() []models.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of favorites.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Flush waits for every toggle made so far to reach storage (or fail).
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close waits for the load, writes the last snapshot and stops the writer.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		<-s.ready
		err = s.writer.Close()
	})
	return err
}

func (s *Store) indexOf(key string) int {
	return slices.IndexFunc(s.items, func(c models.Course) bool { return c.Key == key })
}
