// Package reconcile turns a stream of page signals into at most one
// reclassification pass per frame.
//
// The host re-renders the items list whenever it likes. Each re-render
// shows up as one or more signals (tree mutations, scroll, resize,
// navigation). While the active predicate holds, the first signal of a
// frame schedules a pass and every later one is coalesced into it.
package reconcile

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a signal.
type Kind string

const (
	Mutation Kind = "mutation"
	Scroll   Kind = "scroll"
	Resize   Kind = "resize"
	Navigate Kind = "navigate"
)

// Signal is one notification from the page.
type Signal struct {
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`
	// Generation is the page mutation counter when the signal was sent.
	Generation uint64 `json:"gen,omitempty"`
}

// Source delivers signals to subscribers until the returned cancel
// function is called.
type Source interface {
	Subscribe(fn func(Signal)) (cancel func(), err error)
}

// Scheduler runs fn on the next frame. The returned function cancels a
// frame that has not fired yet.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// DefaultFrame is one frame at 60Hz.
const DefaultFrame = 16 * time.Millisecond

// FrameClock schedules on a fixed frame interval.
type FrameClock struct {
	Interval time.Duration
}

// Schedule fires fn after one frame interval.
func (c FrameClock) Schedule(fn func()) func() {
	d := c.Interval
	if d <= 0 {
		d = DefaultFrame
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Stats are the reconciler counters.
type Stats struct {
	Signals   uint64 `json:"signals"`
	Coalesced uint64 `json:"coalesced"`
	Ignored   uint64 `json:"ignored"`
	Passes    uint64 `json:"passes"`
	Panics    uint64 `json:"panics"`
}

// Reconciler coalesces signals into passes.
type Reconciler struct {
	src    Source
	sched  Scheduler
	active func() bool
	pass   func()
	logger *slog.Logger

	mu          sync.Mutex
	running     bool
	unsubscribe func()
	pending     bool
	cancelFrame func()

	signals   atomic.Uint64
	coalesced atomic.Uint64
	ignored   atomic.Uint64
	passes    atomic.Uint64
	panics    atomic.Uint64
}

// New returns a stopped reconciler. active is consulted on every signal;
// pass runs once per scheduled frame. A nil scheduler means FrameClock.
func New(src Source, sched Scheduler, active func() bool, pass func(), logger *slog.Logger) *Reconciler {
	if sched == nil {
		sched = FrameClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{src: src, sched: sched, active: active, pass: pass, logger: logger}
}

// Start subscribes to the source. Calling it while running is a no-op.
func (r *Reconciler) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	cancel, err := r.src.Subscribe(r.Notify)
	if err != nil {
		return fmt.Errorf("reconcile: subscribe: %w", err)
	}
	r.unsubscribe = cancel
	r.running = true
	return nil
}

// Stop unsubscribes and drops a pending frame. It does not wait for a pass
// already in progress.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	r.dropFrameLocked()
}

// Running reports whether the reconciler is subscribed.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Notify handles one signal. It is the subscription callback and may be
// called directly.
func (r *Reconciler) Notify(s Signal) {
	r.signals.Add(1)
	if r.active != nil && !r.active() {
		r.ignored.Add(1)
		return
	}
	r.schedule()
}

// Request schedules a pass regardless of the active predicate, coalescing
// with a pending one.
func (r *Reconciler) Request() {
	r.schedule()
}

func (r *Reconciler) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	if r.pending {
		r.coalesced.Add(1)
		return
	}
	r.pending = true
	r.cancelFrame = r.sched.Schedule(r.frame)
}

func (r *Reconciler) dropFrameLocked() {
	if r.cancelFrame != nil {
		r.cancelFrame()
		r.cancelFrame = nil
	}
	r.pending = false
}

func (r *Reconciler) frame() {
	r.mu.Lock()
	if !r.pending || !r.running {
		r.mu.Unlock()
		return
	}
	r.pending = false
	r.cancelFrame = nil
	r.mu.Unlock()

	defer func() {
		if v := recover(); v != nil {
			r.panics.Add(1)
			r.logger.Error("reconcile: pass panicked", "panic", v)
		}
	}()
	r.passes.Add(1)
	r.pass()
}

// Stats returns a copy of the counters.
func (r *Reconciler) Stats() Stats {
	return Stats{
		Signals:   r.signals.Load(),
		Coalesced: r.coalesced.Load(),
		Ignored:   r.ignored.Load(),
		Passes:    r.passes.Load(),
		Panics:    r.panics.Load(),
	}
}
