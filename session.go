// CLAUDE:SUMMARY POS session: route guard, anchor wait, list/grid passes with stale-patch retry, and revert on leaving the screen.
// Package posview adds a grid/list view toggle to a point-of-sale screen it
// does not own.
//
// A Session watches one POS tab through a Page. When the tab shows the POS
// screen and the items panel has rendered, it reads the stored mode and
// keeps the items list in that mode across the host's re-renders. Every
// pass takes a fresh snapshot, classifies it, and sends the net attribute
// changes back to the page.
package posview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/posview/classify"
	"github.com/hazyhaar/posview/dom"
	"github.com/hazyhaar/posview/internal/bridge"
	"github.com/hazyhaar/posview/internal/metrics"
	"github.com/hazyhaar/posview/prefs"
	"github.com/hazyhaar/posview/reconcile"
	"github.com/hazyhaar/posview/viewmode"
)

// ErrInactive is returned by operations that need the POS screen when the
// session is not active on it.
var ErrInactive = errors.New("posview: session inactive")

// Page is the tab the session drives. *bridge.Page implements it.
type Page interface {
	reconcile.Source
	Snapshot(ctx context.Context) (*dom.Document, error)
	Apply(ctx context.Context, gen uint64, changes []dom.Change) error
	Route(ctx context.Context) ([]string, error)
	// Observe arms or disarms the page's mutation observer.
	Observe(ctx context.Context, on bool) error
}

// Options tune a Session. Zero values take defaults.
type Options struct {
	Screen        string        // first route segment of the POS screen
	AnchorLabel   string        // text whose presence means the items panel rendered
	AnchorTimeout time.Duration // give up waiting for the anchor after this
	OpTimeout     time.Duration // bound on each page call

	Thresholds classify.Thresholds

	// Scheduler paces reconciliation passes. Nil means a FrameClock of
	// Frame.
	Scheduler reconcile.Scheduler
	Frame     time.Duration

	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func (o *Options) defaults() {
	if o.Screen == "" {
		o.Screen = "point-of-sale"
	}
	if o.AnchorLabel == "" {
		o.AnchorLabel = "All Items"
	}
	if o.AnchorTimeout <= 0 {
		o.AnchorTimeout = 15 * time.Second
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
	if o.Scheduler == nil {
		o.Scheduler = reconcile.FrameClock{Interval: o.Frame}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Session keeps one POS tab in the chosen mode.
type Session struct {
	id      string
	page    Page
	prefs   *prefs.Store
	ctrl    *viewmode.Controller
	rec     *reconcile.Reconciler
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics

	ctx    context.Context
	navMu  sync.Mutex // serialises route checks
	anchor chan struct{}

	// mu serialises tree work and guards everything below.
	mu           sync.Mutex
	mode         viewmode.Mode
	onScreen     bool
	active       bool
	waiting      bool
	gaveUp       bool
	cancelWait   context.CancelFunc
	waitSeq      uint64
	unsubscribe  func()
	last         viewmode.Outcome
	lastPass     time.Time
	passes       uint64
	stalePatches uint64
	errors       uint64
	started      bool
	stopOnDone   func() bool
}

// NewSession builds a stopped session. The mode is read from store now so
// it can be reported before the POS screen shows up.
func NewSession(ctx context.Context, page Page, store *prefs.Store, opts Options) *Session {
	opts.defaults()
	s := &Session{
		id:      uuid.Must(uuid.NewV7()).String(),
		page:    page,
		prefs:   store,
		ctrl:    viewmode.NewController(opts.Thresholds, opts.Logger),
		opts:    opts,
		metrics: opts.Metrics,
		anchor:  make(chan struct{}, 1),
		ctx:     context.Background(),
	}
	s.logger = opts.Logger.With("session", s.id)
	s.mode = store.Get(ctx)
	s.metrics.SetMode(string(s.mode))
	s.rec = reconcile.New(page, opts.Scheduler, s.listActive, s.reconcilePass, s.logger)
	return s
}

// ID returns the session ID used in logs.
func (s *Session) ID() string { return s.id }

// Start subscribes to page signals and activates if the tab already shows
// the POS screen. It returns once the initial route check is done; the
// session then runs until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.ctx = ctx
	unsub, err := s.page.Subscribe(s.onSignal)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("posview: subscribe: %w", err)
	}
	s.unsubscribe = unsub
	s.started = true
	s.stopOnDone = context.AfterFunc(ctx, s.Close)
	s.mu.Unlock()

	s.logger.Info("session: started", "screen", s.opts.Screen)
	s.checkRoute()
	return nil
}

// Close stops observing the page. Markings already applied stay in place.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelWait != nil {
		s.cancelWait()
		s.cancelWait = nil
	}
	s.rec.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.stopOnDone != nil {
		s.stopOnDone()
		s.stopOnDone = nil
	}
	if s.onScreen {
		s.observeLocked(context.WithoutCancel(s.ctx), false)
	}
	s.active, s.waiting, s.started, s.onScreen = false, false, false, false
	s.metrics.SetActive(false)
}

func (s *Session) onSignal(sig reconcile.Signal) {
	defer s.recoverPanic("signal")
	s.metrics.Signal(string(sig.Kind))
	switch sig.Kind {
	case reconcile.Navigate:
		go s.checkRoute()
	case reconcile.Mutation:
		select {
		case s.anchor <- struct{}{}:
		default:
		}
	}
}

// checkRoute activates on the POS screen and deactivates anywhere else.
func (s *Session) checkRoute() {
	defer s.recoverPanic("route")
	s.navMu.Lock()
	defer s.navMu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.OpTimeout)
	route, err := s.page.Route(ctx)
	cancel()
	if err != nil {
		s.logger.Warn("session: route query failed", "error", err)
		return
	}
	onScreen := len(route) > 0 && route[0] == s.opts.Screen

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	was := s.onScreen
	s.onScreen = onScreen
	if onScreen {
		// A reload brings a fresh, disarmed hook.
		s.observeLocked(s.ctx, true)
	}
	switch {
	case onScreen && !was:
		s.logger.Info("session: POS screen shown", "route", route)
		s.gaveUp = false
		s.startWaitLocked()
	case !onScreen && was:
		s.logger.Info("session: left POS screen", "route", route)
		s.deactivateLocked()
	}
}

// startWaitLocked waits for the anchor in the background.
func (s *Session) startWaitLocked() {
	if s.active || s.waiting {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.AnchorTimeout)
	s.cancelWait = cancel
	s.waiting = true
	s.waitSeq++
	// Drop a stale wake-up from before this wait.
	select {
	case <-s.anchor:
	default:
	}
	go s.waitAnchor(ctx, s.waitSeq)
}

// waitAnchor re-checks for the anchor on every mutation until it shows up
// or ctx expires. seq ties it to one visit of the screen.
func (s *Session) waitAnchor(ctx context.Context, seq uint64) {
	defer s.recoverPanic("anchor")
	for {
		found, err := s.anchorPresent(ctx)
		if err != nil && ctx.Err() == nil {
			s.logger.Debug("session: anchor check failed", "error", err)
		}
		if found {
			s.activate(ctx, seq)
			return
		}
		select {
		case <-s.anchor:
		case <-ctx.Done():
			s.mu.Lock()
			if s.waiting && s.waitSeq == seq {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					s.gaveUp = true
					s.logger.Warn("session: anchor not found, staying inactive",
						"label", s.opts.AnchorLabel, "timeout", s.opts.AnchorTimeout)
				}
				s.waiting = false
				s.cancelWait()
				s.cancelWait = nil
			}
			s.mu.Unlock()
			return
		}
	}
}

func (s *Session) anchorPresent(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	doc, err := s.page.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return doc.FindByExactText(s.opts.AnchorLabel, dom.TitleTags...) != nil, nil
}

func (s *Session) activate(wait context.Context, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A navigation away may have cancelled the wait meanwhile.
	if !s.waiting || s.waitSeq != seq || wait.Err() != nil {
		return
	}
	s.waiting = false
	if s.cancelWait != nil {
		s.cancelWait()
		s.cancelWait = nil
	}

	s.mode = s.prefs.Get(s.ctx)
	s.active = true
	s.metrics.SetActive(true)
	s.metrics.SetMode(string(s.mode))
	if err := s.rec.Start(); err != nil {
		s.logger.Error("session: reconciler start failed", "error", err)
	}
	s.logger.Info("session: active", "mode", s.mode)
	s.passLocked()
}

func (s *Session) deactivateLocked() {
	if s.cancelWait != nil {
		s.cancelWait()
		s.cancelWait = nil
	}
	s.waiting = false
	s.rec.Stop()
	if s.active {
		s.applyLocked(viewmode.Grid)
	}
	s.observeLocked(s.ctx, false)
	s.active = false
	s.metrics.SetActive(false)
}

// observeLocked switches the page's mutation observer. Off the POS screen
// it stays disarmed.
func (s *Session) observeLocked(ctx context.Context, on bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	if err := s.page.Observe(ctx, on); err != nil {
		s.logger.Warn("session: observer switch failed", "armed", on, "error", err)
	}
}

// listActive is the reconciler predicate.
func (s *Session) listActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.mode == viewmode.List
}

func (s *Session) reconcilePass() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		s.metrics.ObservePass(metrics.OutcomeInactive, 0, 0, 0)
		return
	}
	s.passLocked()
}

func (s *Session) passLocked() (viewmode.Outcome, error) {
	return s.applyLocked(s.mode)
}

// applyLocked runs one snapshot → classify → patch cycle for mode m.
func (s *Session) applyLocked(m viewmode.Mode) (out viewmode.Outcome, err error) {
	defer s.recoverPanic("pass")
	start := time.Now()
	passID := uuid.Must(uuid.NewV7()).String()
	outcome := metrics.OutcomeApplied
	defer func() {
		s.passes++
		s.lastPass = start
		s.metrics.ObservePass(outcome, time.Since(start), out.Rows, out.Thumbnails)
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.OpTimeout)
	defer cancel()

	doc, err := s.page.Snapshot(ctx)
	if err != nil {
		outcome = metrics.OutcomeError
		s.errors++
		s.logger.Warn("session: snapshot failed", "pass", passID, "error", err)
		return out, fmt.Errorf("posview: snapshot: %w", err)
	}
	out = s.ctrl.Apply(doc, m)
	s.last = out

	changes := doc.Changes()
	if len(changes) == 0 {
		outcome = metrics.OutcomeNoop
		return out, nil
	}
	if err := s.page.Apply(ctx, doc.Generation, changes); err != nil {
		if errors.Is(err, bridge.ErrStale) {
			outcome = metrics.OutcomeStale
			s.stalePatches++
			s.logger.Debug("session: stale patch, retrying next frame", "pass", passID)
			s.rec.Request()
			return out, nil
		}
		outcome = metrics.OutcomeError
		s.errors++
		s.logger.Warn("session: apply failed", "pass", passID, "error", err)
		return out, fmt.Errorf("posview: apply: %w", err)
	}
	s.logger.Debug("session: pass applied", "pass", passID, "mode", m,
		"rows", out.Rows, "thumbnails", out.Thumbnails, "changes", len(changes))
	return out, nil
}

// Mode returns the current mode.
func (s *Session) Mode() viewmode.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode stores m and, when active, applies it right away.
func (s *Session) SetMode(ctx context.Context, m viewmode.Mode) (Status, error) {
	m, err := viewmode.Parse(string(m))
	if err != nil {
		return Status{}, err
	}
	tier := s.prefs.Set(ctx, m)

	s.mu.Lock()
	s.mode = m
	s.metrics.ModeChanged(string(m))
	s.logger.Info("session: mode set", "mode", m, "tier", tier)
	if s.active {
		_, err = s.passLocked()
	}
	s.mu.Unlock()
	return s.Status(), err
}

// Toggle flips the mode.
func (s *Session) Toggle(ctx context.Context) (Status, error) {
	return s.SetMode(ctx, s.Mode().Toggle())
}

// Reapply runs one pass now. It returns ErrInactive off the POS screen.
func (s *Session) Reapply(ctx context.Context) (viewmode.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return viewmode.Outcome{}, ErrInactive
	}
	return s.passLocked()
}

// SetThresholds swaps the classification thresholds and, in list mode,
// schedules a pass with them.
func (s *Session) SetThresholds(th classify.Thresholds) {
	s.ctrl.SetThresholds(th)
	s.logger.Info("session: thresholds updated", "policy", th.ThumbPolicy, "min_children", th.MinChildren)
	if s.listActive() {
		s.rec.Request()
	}
}

func (s *Session) recoverPanic(where string) {
	if v := recover(); v != nil {
		s.logger.Error("session: recovered panic", "in", where, "panic", v)
	}
}
