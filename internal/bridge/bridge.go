// CLAUDE:SUMMARY CDP bridge to the POS tab: hook install, armed mutation observer, snapshot, generation-checked patch, route query.
// Package bridge is the DevTools side of posview. It installs a hook in the
// POS tab that always reports navigation, and reports tree mutations and
// viewport changes only while armed. It takes snapshots of the rendered
// tree and applies attribute patches computed from them.
package bridge

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/posview/dom"
	"github.com/hazyhaar/posview/reconcile"
)

// bindingName must match the name hook.js posts to.
const bindingName = "__posview_binding"

var (
	//go:embed hook.js
	hookJS string
	//go:embed snapshot.js
	snapshotJS string
	//go:embed apply.js
	applyJS string
	//go:embed route.js
	routeJS string
	//go:embed observe.js
	observeJS string
)

var (
	// ErrStale is returned by Apply when the page mutated after the
	// snapshot the patch was computed from.
	ErrStale = errors.New("bridge: page changed since snapshot")
	// ErrNotReady is returned by Snapshot before the page has a body or
	// the hook is installed.
	ErrNotReady = errors.New("bridge: page not ready")
)

// Page wraps the POS tab.
type Page struct {
	page   *rod.Page
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]func(reconcile.Signal)
	nextID int

	cancel       context.CancelFunc
	removeScript func() error
}

// New wraps page. Call Install before anything else.
func New(page *rod.Page, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{page: page, logger: logger, subs: map[int]func(reconcile.Signal){}}
}

// Install adds the binding, registers the hook for every new document,
// runs it in the current one and starts forwarding signals. The listener
// stops when ctx is done or Close is called.
func (p *Page) Install(ctx context.Context) error {
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(p.page); err != nil {
		p.logger.Warn("bridge: addBinding failed (may already exist)", "error", err)
	}

	remove, err := p.page.EvalOnNewDocument(hookJS)
	if err != nil {
		return fmt.Errorf("bridge: register hook: %w", err)
	}
	p.removeScript = remove

	if _, err := (proto.RuntimeEvaluate{Expression: hookJS}).Call(p.page); err != nil {
		return fmt.Errorf("bridge: run hook: %w", err)
	}

	lctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.listen(lctx)

	p.logger.Debug("bridge: hook installed")
	return nil
}

// listen forwards binding calls and main-frame navigations.
func (p *Page) listen(ctx context.Context) {
	p.page.Context(ctx).EachEvent(
		func(e *proto.RuntimeBindingCalled) {
			if e.Name != bindingName {
				return
			}
			sig, err := parseSignal(e.Payload)
			if err != nil {
				p.logger.Warn("bridge: bad signal payload", "error", err)
				return
			}
			p.dispatch(sig)
		},
		func(e *proto.PageFrameNavigated) {
			if e.Frame == nil || e.Frame.ParentID != "" {
				return
			}
			p.dispatch(reconcile.Signal{Kind: reconcile.Navigate, At: time.Now()})
		},
	)()
}

type wireSignal struct {
	Kind string    `json:"kind"`
	Gen  uint64    `json:"gen"`
	At   time.Time `json:"at"`
}

func parseSignal(payload string) (reconcile.Signal, error) {
	var w wireSignal
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return reconcile.Signal{}, fmt.Errorf("bridge: parse signal: %w", err)
	}
	kind := reconcile.Kind(w.Kind)
	switch kind {
	case reconcile.Mutation, reconcile.Scroll, reconcile.Resize, reconcile.Navigate:
	default:
		return reconcile.Signal{}, fmt.Errorf("bridge: unknown signal %q", w.Kind)
	}
	if w.At.IsZero() {
		w.At = time.Now()
	}
	return reconcile.Signal{Kind: kind, At: w.At, Generation: w.Gen}, nil
}

// Subscribe registers fn for every page signal.
func (p *Page) Subscribe(fn func(reconcile.Signal)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}, nil
}

func (p *Page) dispatch(sig reconcile.Signal) {
	p.mu.Lock()
	fns := make([]func(reconcile.Signal), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(sig)
	}
}

// Snapshot serialises the body subtree. The page keeps the matching node
// table for the next Apply.
func (p *Page) Snapshot(ctx context.Context) (*dom.Document, error) {
	res, err := p.page.Context(ctx).Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("bridge: snapshot: %w", err)
	}
	raw := res.Value.Str()
	if raw == "" {
		return nil, ErrNotReady
	}
	doc, err := dom.Decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("bridge: snapshot: %w", err)
	}
	return doc, nil
}

type applyResult struct {
	OK  bool  `json:"ok"`
	Gen int64 `json:"gen"`
}

// Apply writes changes computed from the snapshot at generation gen. The
// page refuses the whole patch with ErrStale when its tree moved on.
func (p *Page) Apply(ctx context.Context, gen uint64, changes []dom.Change) error {
	if len(changes) == 0 {
		return nil
	}
	res, err := p.page.Context(ctx).Eval(applyJS, gen, changes)
	if err != nil {
		return fmt.Errorf("bridge: apply: %w", err)
	}
	var r applyResult
	if err := res.Value.Unmarshal(&r); err != nil {
		return fmt.Errorf("bridge: apply result: %w", err)
	}
	if !r.OK {
		return fmt.Errorf("%w (snapshot %d, page %d)", ErrStale, gen, r.Gen)
	}
	return nil
}

// Route returns frappe.get_route(), or an empty route when the page has
// no router.
func (p *Page) Route(ctx context.Context) ([]string, error) {
	res, err := p.page.Context(ctx).Eval(routeJS)
	if err != nil {
		return nil, fmt.Errorf("bridge: route: %w", err)
	}
	var route []string
	if err := res.Value.Unmarshal(&route); err != nil {
		return nil, fmt.Errorf("bridge: route: %w", err)
	}
	return route, nil
}

// Observe arms or disarms the in-page mutation observer. A fresh document
// starts disarmed, so callers re-arm after navigating.
func (p *Page) Observe(ctx context.Context, on bool) error {
	res, err := p.page.Context(ctx).Eval(observeJS, on)
	if err != nil {
		return fmt.Errorf("bridge: observe: %w", err)
	}
	if !res.Value.Bool() {
		return ErrNotReady
	}
	p.logger.Debug("bridge: observer", "armed", on)
	return nil
}

// Close stops the listener and unregisters the hook for future documents.
func (p *Page) Close() error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.removeScript != nil {
		return p.removeScript()
	}
	return nil
}
