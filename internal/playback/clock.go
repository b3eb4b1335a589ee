// Package playback implements the playback clock that advances the playhead
// while a session is playing.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/montage/internal/timeline"
)

// Default cadence.
const (
	DefaultInterval = 100 * time.Millisecond
	DefaultStep     = timeline.DefaultTickStep
)

// Store is the serialized snapshot owner the clock advances.
type Store interface {
	Snapshot() timeline.Project
	Update(fn func(timeline.Project) timeline.Project) timeline.Project
}

// TickSource returns a channel delivering ticks every interval and a func
// releasing it.
type TickSource func(interval time.Duration) (<-chan time.Time, func())

func tickerSource(interval time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(interval)
	return t.C, t.Stop
}

// Clock drives timeline.Tick on a fixed cadence.
//
// Each Start opens a generation. Stop closes it inside the store's update
// lock, and every tick re-checks its generation inside that same lock, so a
// tick already in flight when Stop returns can never apply.
type Clock struct {
	store    Store
	interval time.Duration
	step     float64
	source   TickSource
	logger   *slog.Logger

	mu     sync.Mutex // serializes Start/Stop/Close
	gen    atomic.Uint64
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// Option configures a Clock.
type Option func(*Clock)

// WithInterval sets the wall-clock tick interval.
func WithInterval(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithStep sets the playhead advance per tick, in seconds.
func WithStep(step float64) Option {
	return func(c *Clock) {
		if step > 0 {
			c.step = step
		}
	}
}

// WithTickSource replaces the ticker, mainly for tests.
func WithTickSource(src TickSource) Option {
	return func(c *Clock) { c.source = src }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Clock) { c.logger = l }
}

// New creates a stopped clock over store.
func New(store Store, opts ...Option) *Clock {
	c := &Clock{
		store:    store,
		interval: DefaultInterval,
		step:     DefaultStep,
		source:   tickerSource,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins playback. It reports false when the clock is already
// running or has been closed.
func (c *Clock) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

// Stop halts playback. No tick applies after Stop returns.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Toggle starts a stopped clock or stops a running one and reports whether
// the session is playing afterwards.
func (c *Clock) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runningLocked() && c.store.Snapshot().IsPlaying {
		c.stopLocked()
		return false
	}
	return c.startLocked()
}

// Running reports whether a tick loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

// Close stops playback for good; later Starts are refused.
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.closed = true
}

func (c *Clock) startLocked() bool {
	if c.closed {
		return false
	}
	if c.runningLocked() && c.store.Snapshot().IsPlaying {
		return false
	}
	// Reap a loop that ended on its own at the end of the timeline, or one
	// whose snapshot was paused by a replacement.
	c.join()

	var gen uint64
	c.store.Update(func(p timeline.Project) timeline.Project {
		gen = c.gen.Add(1)
		return timeline.SetPlaying(p, true)
	})

	// The ticker is held before Start returns; the loop releases it.
	ticks, release := c.source(c.interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	go c.run(ctx, gen, ticks, release, done)

	c.logger.Debug("playback: started", slog.Uint64("generation", gen))
	return true
}

func (c *Clock) stopLocked() {
	c.store.Update(func(p timeline.Project) timeline.Project {
		c.gen.Add(1)
		if !p.IsPlaying {
			return p
		}
		return timeline.SetPlaying(p, false)
	})
	if c.join() {
		c.logger.Debug("playback: stopped")
	}
}

// join cancels the current loop and waits for it to exit. The loop never
// takes c.mu, so waiting here while holding it is safe.
func (c *Clock) join() bool {
	if c.cancel == nil {
		return false
	}
	c.cancel()
	<-c.done
	c.cancel, c.done = nil, nil
	return true
}

func (c *Clock) runningLocked() bool {
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *Clock) run(ctx context.Context, gen uint64, ticks <-chan time.Time, release func(), done chan struct{}) {
	defer close(done)
	defer release()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			stale := false
			p := c.store.Update(func(p timeline.Project) timeline.Project {
				if c.gen.Load() != gen {
					stale = true
					return p
				}
				return timeline.Tick(p, c.step)
			})
			if stale {
				return
			}
			if !p.IsPlaying {
				c.logger.Debug("playback: reached end, rewound",
					slog.Float64("duration", p.Duration))
				return
			}
		}
	}
}
