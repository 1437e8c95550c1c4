package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/coursefinder/internal/kv"
	"github.com/desertthunder/coursefinder/internal/shared"
)

// State is the navigation domain the user belongs to.
type State int

const (
	Unknown State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// DefaultTokenKey is the credential key used when GateOptions.Key is empty.
const DefaultTokenKey = "userToken"

// GateOptions configures a [Gate].
type GateOptions struct {
	Key          string
	PollInterval time.Duration // 0 disables polling
	Timeout      time.Duration // per read
	Logger       *log.Logger
}

// Gate derives [State] from the presence of the credential token.
type Gate struct {
	store    kv.Store
	key      string
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	state   State
	active  bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	runDone <-chan struct{}

	next int
	subs map[int]chan State
}

// NewGate returns an inactive gate in the [Unknown] state.
func NewGate(store kv.Store, opts GateOptions) *Gate {
	if opts.Key == "" {
		opts.Key = DefaultTokenKey
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Gate{
		store:    store,
		key:      opts.Key,
		interval: opts.PollInterval,
		timeout:  opts.Timeout,
		logger:   shared.WithLogger(opts.Logger, "component", "session"),
		subs:     make(map[int]chan State),
	}
}

// Start activates the gate. The first check completes before Start returns, so a token that is
// already stored yields [Authenticated] immediately. Starting an active gate is a no-op.
// Cancelling ctx deactivates the gate as [Gate.Stop] would, and it may be started again.
func (g *Gate) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	for g.active {
		// A run whose start context was cancelled is winding down; wait for it and start over.
		select {
		case <-g.runDone:
		default:
			g.mu.Unlock()
			return nil
		}
		done := g.done
		g.mu.Unlock()
		<-done
		g.mu.Lock()
	}
	runCtx, cancel := context.WithCancel(ctx)
	g.runDone = runCtx.Done()
	g.active = true
	g.gen++
	gen := g.gen
	g.cancel = cancel
	done := make(chan struct{})
	g.done = done
	g.mu.Unlock()

	// Subscribe before the first read so a write racing with it is not missed.
	var events <-chan kv.Event
	unwatch := func() {}
	if w, ok := g.store.(kv.Watcher); ok {
		events, unwatch = w.Watch(g.key)
	}

	var tick <-chan time.Time
	stopTicker := func() {}
	if g.interval > 0 {
		t := time.NewTicker(g.interval)
		tick, stopTicker = t.C, t.Stop
	}

	g.check(runCtx, gen)
	g.logger.Debug("gate started", "key", g.key, "poll", g.interval, "watch", events != nil)

	go func() {
		defer close(done)
		defer unwatch()
		defer stopTicker()

		for {
			select {
			case <-runCtx.Done():
				g.mu.Lock()
				if g.gen == gen {
					g.active = false
					g.gen++
				}
				g.mu.Unlock()
				cancel()
				return
			case _, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				g.check(runCtx, gen)
			case <-tick:
				g.check(runCtx, gen)
			}
		}
	}()
	return nil
}

// Stop deactivates the gate and waits for its goroutine to exit. Results of reads still in flight
// are discarded. Stopping an inactive gate is a no-op.
func (g *Gate) Stop() {
	g.mu.Lock()
	if !g.active {
		g.mu.Unlock()
		return
	}
	g.active = false
	g.gen++
	cancel, done := g.cancel, g.done
	g.mu.Unlock()

	cancel()
	<-done
	g.logger.Debug("gate stopped")
}

// Current returns the last resolved state.
func (g *Gate) Current() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Changes subscribes to state transitions. The channel holds at most the latest unread state.
// The returned function unsubscribes and closes the channel.
func (g *Gate) Changes() (<-chan State, func()) {
	ch := make(chan State, 1)

	g.mu.Lock()
	id := g.next
	g.next++
	g.subs[id] = ch
	g.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
			close(ch)
		})
	}
}

// Check reads the credential key once and returns the state it implies.
// The result is applied only while the gate is active.
func (g *Gate) Check(ctx context.Context) State {
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()
	return g.check(ctx, gen)
}

func (g *Gate) check(ctx context.Context, gen uint64) State {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	token, ok := kv.Lookup(ctx, g.store, g.key)
	next := Unauthenticated
	if ok && token != "" {
		next = Authenticated
	}
	g.apply(gen, next)
	return next
}

func (g *Gate) apply(gen uint64, next State) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.active || gen != g.gen {
		return
	}
	if g.state == next {
		return
	}

	g.logger.Debug("session state changed", "from", g.state, "to", next)
	g.state = next
	for _, ch := range g.subs {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
}
