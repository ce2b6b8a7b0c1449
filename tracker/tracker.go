// Package tracker runs a background loop that recomputes the position of
// every catalogued satellite on a fixed cadence and publishes the result
// as an immutable snapshot. It is the live data source behind the
// streaming API.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/groundsegment/sattrack/model"
	"github.com/groundsegment/sattrack/orbit"
)

// Mode describes how the tracker's scenario clock advances.
type Mode int

const (
	// RealTime pins scenario time to the wall clock.
	RealTime Mode = iota
	// Accelerated advances scenario time faster than wall time by a
	// configurable scale factor, anchored at the moment Start is called.
	Accelerated
)

// Catalog is the read surface the tracker needs from a satellite store.
type Catalog interface {
	List(ctx context.Context) ([]model.Satellite, error)
}

// Snapshot is one tick's worth of computed positions. Err is non-nil
// when the catalog itself could not be listed; per-satellite failures
// live inside the individual results.
type Snapshot struct {
	At        time.Time
	Positions []orbit.PositionResult
	Err       error
}

// MetricsRecorder receives per-tick observations. Implementations must
// be safe for concurrent use.
type MetricsRecorder interface {
	ObserveTick(satellites, failed int, elapsed time.Duration)
}

// Option customises Tracker construction.
type Option func(*Tracker)

// WithInterval sets the tick cadence. Values <= 0 keep the default.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithMode selects how scenario time advances.
func WithMode(m Mode) Option {
	return func(t *Tracker) {
		t.mode = m
	}
}

// WithTimeScale sets the Accelerated speed-up factor. Values <= 0 keep
// the default. Ignored in RealTime mode.
func WithTimeScale(scale float64) Option {
	return func(t *Tracker) {
		if scale > 0 {
			t.scale = scale
		}
	}
}

// WithStartTime anchors scenario time at start instead of the wall
// clock, which lets an Accelerated tracker replay a historical pass.
func WithStartTime(start time.Time) Option {
	return func(t *Tracker) {
		t.anchorSim = start.UTC()
	}
}

// WithMetricsRecorder attaches an optional per-tick metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// Tracker owns the recompute loop. Construct with NewTracker, then call
// Start exactly once; the loop stops when the Start context is cancelled.
type Tracker struct {
	store    Catalog
	engine   *orbit.Engine
	interval time.Duration
	mode     Mode
	scale    float64
	metrics  MetricsRecorder

	anchorSim  time.Time
	anchorWall time.Time

	mu      sync.RWMutex
	current Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewTracker builds a tracker over the given catalog and engine. The
// default configuration ticks once per second in RealTime mode.
func NewTracker(store Catalog, engine *orbit.Engine, opts ...Option) *Tracker {
	t := &Tracker{
		store:      store,
		engine:     engine,
		interval:   time.Second,
		mode:       RealTime,
		scale:      1.0,
		anchorWall: time.Now().UTC(),
		subs:       make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.anchorSim.IsZero() {
		t.anchorSim = t.anchorWall
	}
	return t
}

// Now returns the current scenario time.
func (t *Tracker) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scenarioNow()
}

func (t *Tracker) scenarioNow() time.Time {
	if t.mode == Accelerated {
		elapsed := time.Since(t.anchorWall)
		return t.anchorSim.Add(time.Duration(float64(elapsed) * t.scale))
	}
	return time.Now().UTC()
}

// Snapshot returns the most recent tick result. The positions slice is
// copied, so callers may keep or mutate it freely.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := t.current
	if snap.Positions != nil {
		snap.Positions = append([]orbit.PositionResult(nil), snap.Positions...)
	}
	return snap
}

// Subscribe registers fn to run after every tick and returns a function
// that removes the registration. fn is called from the tracker loop, so
// it should hand work off rather than block.
func (t *Tracker) Subscribe(fn func(Snapshot)) func() {
	t.mu.Lock()
	idx := t.nextSub
	t.nextSub++
	t.subs[idx] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, idx)
		t.mu.Unlock()
	}
}

// Start launches the recompute loop. The first tick runs immediately so
// subscribers do not wait a full interval for data. The returned channel
// is closed once the loop has fully stopped.
func (t *Tracker) Start(ctx context.Context) <-chan struct{} {
	t.mu.Lock()
	t.anchorWall = time.Now().UTC()
	if t.mode == RealTime {
		t.anchorSim = t.anchorWall
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		t.step(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.step(ctx)
			}
		}
	}()
	return done
}

func (t *Tracker) step(ctx context.Context) {
	started := time.Now()

	t.mu.RLock()
	at := t.scenarioNow()
	t.mu.RUnlock()

	snap := Snapshot{At: at}
	sats, err := t.store.List(ctx)
	if err != nil {
		snap.Err = err
	} else {
		snap.Positions = t.engine.ComputePositions(ctx, sats, at)
	}

	failed := 0
	for _, res := range snap.Positions {
		if res.Err != nil {
			failed++
		}
	}

	t.mu.Lock()
	t.current = snap
	notify := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		notify = append(notify, fn)
	}
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.ObserveTick(len(snap.Positions), failed, time.Since(started))
	}
	for _, fn := range notify {
		fn(snap)
	}
}
