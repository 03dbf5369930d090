// Package progress fabricates forward motion for calls that report none.
//
// The extract endpoint gives no intermediate progress, so while it runs the
// Estimator ticks a value upward by random steps. It never passes Ceiling on
// its own; only Complete moves it to Full, and only after the real answer has
// arrived. The value is presentational and has no effect on the workflow.
package progress

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// Ceiling is the highest value the ticker reaches without a completion signal.
	Ceiling = 90
	// Full is the value shown once the real result is known.
	Full = 100

	DefaultInterval = 500 * time.Millisecond
	DefaultMaxStep  = 10
)

// Options configures an Estimator. Zero values pick the defaults.
type Options struct {
	Interval time.Duration
	MaxStep  int
	// Rand returns a value in [0, n). Defaults to math/rand/v2.IntN.
	Rand func(n int) int
	// OnChange, if set, receives every new value. It is called without the
	// estimator's lock held and may run on the ticker goroutine.
	OnChange func(value int)
}

// Estimator owns a bounded pseudo-progress value and the single ticker that
// advances it.
type Estimator struct {
	mu       sync.Mutex
	value    int
	cancel   context.CancelFunc
	done     chan struct{}
	interval time.Duration
	maxStep  int
	rand     func(n int) int
	onChange func(int)
}

// New returns an idle Estimator at zero.
func New(opts Options) *Estimator {
	e := &Estimator{
		interval: opts.Interval,
		maxStep:  opts.MaxStep,
		rand:     opts.Rand,
		onChange: opts.OnChange,
	}
	if e.interval <= 0 {
		e.interval = DefaultInterval
	}
	if e.maxStep <= 0 {
		e.maxStep = DefaultMaxStep
	}
	if e.rand == nil {
		e.rand = rand.IntN
	}
	return e
}

// Start resets the value to zero and launches the ticker. A ticker left over
// from an earlier Start is stopped first, so at most one runs at a time.
func (e *Estimator) Start() {
	e.halt()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	e.mu.Lock()
	e.value = 0
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()
	e.notify(0)

	go e.run(ctx, done)
}

// Complete stops the ticker and pins the value at Full.
func (e *Estimator) Complete() {
	e.halt()
	e.mu.Lock()
	e.value = Full
	e.mu.Unlock()
	e.notify(Full)
}

// Stop stops the ticker and resets the value to zero.
func (e *Estimator) Stop() {
	e.halt()
	e.mu.Lock()
	e.value = 0
	e.mu.Unlock()
	e.notify(0)
}

// Value returns the current progress in [0, Full].
func (e *Estimator) Value() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Running reports whether a ticker is alive.
func (e *Estimator) Running() bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// halt cancels the live ticker, if any, and waits for it to exit. Once halt
// returns the ticker can no longer touch the value.
func (e *Estimator) halt() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	if cancel != nil {
		cancel()
	}
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (e *Estimator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		value, wrote, more := e.advance(ctx)
		if wrote {
			e.notify(value)
		}
		if !more {
			return
		}
	}
}

// advance applies one random step. more is false once the ticker should
// exit, either because it was cancelled or because the value hit Ceiling.
func (e *Estimator) advance(ctx context.Context) (value int, wrote, more bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// cancel runs under mu, so a cancelled ticker never writes.
	if ctx.Err() != nil {
		return e.value, false, false
	}
	next := e.value + 1 + e.rand(e.maxStep)
	if next >= Ceiling {
		// done stays set so halt still waits for the final notify.
		e.value = Ceiling
		return Ceiling, true, false
	}
	e.value = next
	return next, true, true
}

func (e *Estimator) notify(value int) {
	if e.onChange != nil {
		e.onChange(value)
	}
}
