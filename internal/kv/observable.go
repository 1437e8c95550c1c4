package kv

import (
	"context"
	"slices"
	"sync"
)

// Event describes a committed change to a key.
type Event struct {
	Key     string
	Value   string
	Deleted bool
}

// Watcher is implemented by stores that publish change events.
type Watcher interface {
	// Watch subscribes to changes of the given keys (all keys when none are given).
	// The returned function cancels the subscription and closes the channel.
	Watch(keys ...string) (<-chan Event, func())
}

const watchBuffer = 8

type subscription struct {
	keys []string
	ch   chan Event
}

func (s *subscription) wants(key string) bool {
	return len(s.keys) == 0 || slices.Contains(s.keys, key)
}

// Observable decorates a [Store] with change notifications.
type Observable struct {
	Store

	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

var (
	_ Store   = (*Observable)(nil)
	_ Watcher = (*Observable)(nil)
)

// Observe wraps s. Wrapping an [Observable] again returns it unchanged.
func Observe(s Store) *Observable {
	if o, ok := s.(*Observable); ok {
		return o
	}
	return &Observable{Store: s, subs: make(map[int]*subscription)}
}

// Watch implements [Watcher].
func (o *Observable) Watch(keys ...string) (<-chan Event, func()) {
	sub := &subscription{keys: slices.Clone(keys), ch: make(chan Event, watchBuffer)}

	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = sub
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			if _, ok := o.subs[id]; ok {
				delete(o.subs, id)
				close(sub.ch)
			}
		})
	}
	return sub.ch, cancel
}

func (o *Observable) Set(ctx context.Context, key, value string) error {
	if err := o.Store.Set(ctx, key, value); err != nil {
		return err
	}
	o.publish(Event{Key: key, Value: value})
	return nil
}

func (o *Observable) Delete(ctx context.Context, key string) error {
	return o.MultiDelete(ctx, key)
}

func (o *Observable) MultiDelete(ctx context.Context, keys ...string) error {
	if err := o.Store.MultiDelete(ctx, keys...); err != nil {
		return err
	}
	for _, k := range keys {
		o.publish(Event{Key: k, Deleted: true})
	}
	return nil
}

// Close cancels all subscriptions and closes the wrapped store.
func (o *Observable) Close() error {
	o.mu.Lock()
	subs := o.subs
	o.subs = make(map[int]*subscription)
	o.mu.Unlock()

	for _, sub := range subs {
		close(sub.ch)
	}
	return o.Store.Close()
}

// publish never blocks: a subscriber with a full buffer already has a pending signal to re-read.
func (o *Observable) publish(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, sub := range o.subs {
		if !sub.wants(ev.Key) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}
