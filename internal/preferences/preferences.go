// Package preferences holds the light/dark theme setting.
//
// The value is read once when the [Store] opens and cached. Toggle flips it in memory and writes
// it behind through a [kv.Writer]. Storage failures are logged and otherwise ignored.
package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// DefaultKey is the storage key used when Options.Key is empty.
const DefaultKey = "appTheme"

// Options configures a [Store].
type Options struct {
	Key     string
	Timeout time.Duration
	Logger  *log.Logger
}

// Store caches the current theme.
type Store struct {
	key    string
	logger *log.Logger
	writer *kv.Writer

	mu   sync.RWMutex
	mode Mode

	ready     chan struct{}
	closeOnce sync.Once
}

// Open starts with [Light] and loads the persisted mode in the background.
func Open(ctx context.Context, store kv.Store, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	logger := shared.WithLogger(opts.Logger, "component", "preferences")

	s := &Store{
		key:    opts.Key,
		logger: logger,
		writer: kv.NewWriter(store, opts.Key, opts.Timeout, logger),
		mode:   Light,
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
		return
	}
	// Only "dark" overrides the default; anything else leaves light in place.
	if Mode(raw) != Dark {
		if Mode(raw) != Light {
			s.logger.Warn("ignoring unknown theme", "value", raw)
		}
		return
	}

	s.mu.Lock()
	s.mode = Dark
	s.mu.Unlock()
	s.logger.Debug("theme loaded", "mode", Dark)
}

// Ready is closed once the startup load has finished.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Mode returns the current mode.
func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Current returns the palette for the current mode.
func (s *Store) Current() Theme {
	return ThemeFor(s.Mode())
}

// Toggle flips the mode once the startup load has resolved and returns the new palette.
func (s *Store) Toggle() Theme {
	<-s.ready

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = s.mode.Opposite()
	s.writer.Enqueue(string(s.mode))
	return ThemeFor(s.mode)
}

// Flush waits for pending writes.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

// Close waits for the load and drains the writer.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		<-s.ready
		err = s.writer.Close()
	})
	return err
}
