package kv

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Writer persists values of one key asynchronously on a dedicated goroutine.
//
// Enqueue never blocks. While a write is in flight only the newest pending value is kept.
type Writer struct {
	store   Store
	key     string
	timeout time.Duration
	logger  *log.Logger

	mu       sync.Mutex
	pending  *string
	queued   uint64
	written  uint64
	progress chan struct{}
	closed   bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewWriter starts a writer for key. Call [Writer.Close] to drain and stop it.
func NewWriter(store Store, key string, timeout time.Duration, logger *log.Logger) *Writer {
	w := &Writer{
		store:    store,
		key:      key,
		timeout:  timeout,
		logger:   logger,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue schedules value to be written, replacing any value not yet written.
// Values enqueued after Close are dropped.
func (w *Writer) Enqueue(value string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.logger.Warn("write after close dropped", "key", w.key)
		return
	}
	w.pending = &value
	w.queued++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every value enqueued before the call has been written or dropped.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.queued
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.written >= target {
			w.mu.Unlock()
			return nil
		}
		ch := w.progress
		w.mu.Unlock()

		select {
		case <-ch:
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close writes the last pending value, if any, and stops the goroutine.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.quit)
	<-w.done
	return nil
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *Writer) drain() {
	w.mu.Lock()
	value, seq := w.pending, w.queued
	w.pending = nil
	w.mu.Unlock()

	if value != nil {
		ctx, cancel := withTimeout(context.Background(), w.timeout)
		if err := w.store.Set(ctx, w.key, *value); err != nil {
			w.logger.Warn("persist failed, dropping write", "key", w.key, "error", err)
		} else {
			w.logger.Debug("persisted", "key", w.key, "bytes", len(*value))
		}
		cancel()
	}

	w.mu.Lock()
	if seq > w.written {
		w.written = seq
	}
	close(w.progress)
	w.progress = make(chan struct{})
	w.mu.Unlock()
}
