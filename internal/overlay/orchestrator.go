package overlay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// registration pairs a definition with its cancellation generation and the
// mutex that serializes open/close operations for one id.
type registration struct {
	def Definition

	// gen increments on Unregister. Operations snapshot it before running a
	// guard and discard their result as stale if it moved.
	gen uint64

	// opMu queues a second Open/Close for the same id behind one whose guard
	// is still in flight, so a Close can never mutate state while a prior
	// Open's guard is resolving.
	opMu sync.Mutex
}

// Orchestrator owns the overlay registry, the runtime state table and the
// open-order history stack. It is the only writer of all three; feature
// components coordinate exclusively through Open/Close, never through ad-hoc
// visibility flags.
//
// Construct one at application start and inject it into every dialog and
// feature component. There is no package-level instance.
type Orchestrator struct {
	logger     *slog.Logger
	transition time.Duration
	notify     func()

	mu       sync.Mutex
	defs     map[string]*registration
	states   map[string]*record
	history  []string // currently-open ids in open order; tail is active
	zCounter int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTransition sets the enter/exit transition window. Zero (the default)
// completes transitions synchronously inside Open/Close, which is what tests
// and headless callers want. The TUI sets it to its animation duration.
func WithTransition(d time.Duration) Option {
	return func(o *Orchestrator) { o.transition = d }
}

// WithNotify sets a callback invoked after every state mutation. The TUI uses
// it to send a redraw message into the running program. It is always called
// without internal locks held.
func WithNotify(fn func()) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

// New creates an empty orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger: slog.Default(),
		defs:   make(map[string]*registration),
		states: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Register inserts or replaces the definition for def.ID. Replacing the
// definition of an id that is currently open does not alter its live runtime
// state; the new template applies from the next open/close cycle. In-flight
// guards of a replaced id complete normally — only Unregister cancels them.
func (o *Orchestrator) Register(def Definition) error {
	if def.ID == "" {
		return opError("register", "", errors.New("empty id"))
	}
	o.mu.Lock()
	if reg, ok := o.defs[def.ID]; ok {
		reg.def = def
	} else {
		o.defs[def.ID] = &registration{def: def}
	}
	o.mu.Unlock()
	return nil
}

// Unregister removes the definition and runtime state for id. If the overlay
// is visible it is force-closed first: the close hooks run on a best-effort
// basis, and a guard veto does not block removal since the owning component
// is going away regardless. Any in-flight guard for id is invalidated.
func (o *Orchestrator) Unregister(id string) {
	o.mu.Lock()
	reg, ok := o.defs[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	reg.gen++
	def := reg.def
	st, exists := o.states[id]
	visible := exists && st.visible
	o.mu.Unlock()

	if visible && def.BeforeClose != nil {
		if allow, err := def.BeforeClose(context.Background()); err != nil || !allow {
			o.logger.Debug("close guard overridden during unregister", "id", id, "error", err)
		}
	}

	o.mu.Lock()
	if cur, ok := o.defs[id]; ok && cur == reg {
		delete(o.defs, id)
	}
	delete(o.states, id)
	o.removeFromHistory(id)
	o.mu.Unlock()

	if visible && def.Closed != nil {
		def.Closed()
	}
	o.notifyChanged()
}

// Open shows the overlay id, merging args over the definition's defaults
// (caller keys win). Opening an id that is already open brings it to the
// front: fresh stacking order, updated args, no duplicate history entry and
// no transition. Open blocks while the BeforeOpen guard runs; a second call
// for the same id queues behind it.
func (o *Orchestrator) Open(ctx context.Context, id string, args Args) error {
	o.mu.Lock()
	reg, ok := o.defs[id]
	if !ok {
		o.mu.Unlock()
		o.logger.Warn("open: overlay not registered", "id", id)
		return opError("open", id, ErrNotRegistered)
	}
	gen := reg.gen
	def := reg.def
	o.mu.Unlock()

	reg.opMu.Lock()
	defer reg.opMu.Unlock()

	if def.BeforeOpen != nil {
		allow, err := def.BeforeOpen(ctx)
		if err != nil {
			return o.hookFailed("open", id, def, err)
		}
		if !allow {
			return opError("open", id, ErrVetoed)
		}
	}

	o.mu.Lock()
	if reg.gen != gen {
		o.mu.Unlock()
		o.logger.Debug("open discarded, overlay unregistered while guard ran", "id", id)
		return nil
	}

	now := time.Now()
	st, ok := o.states[id]
	if !ok {
		st = &record{createdAt: now, args: Args{}}
		o.states[id] = st
	}
	st.lastAccessedAt = now
	// Fresh payload per open: defaults, then props injected while hidden,
	// then the caller's args. Nothing from a prior open survives.
	st.args = mergeArgs(def.DefaultArgs, mergeArgs(st.pending, args))
	st.pending = nil

	if o.indexInHistory(id) >= 0 {
		// Bring to front. Nothing enters or exits, so no transition flag; a
		// pending exit window is superseded via seq.
		o.zCounter++
		st.zIndex = o.zCounter
		st.visible = true
		st.transitioning = false
		st.closing = false
		st.seq++
		o.moveToTail(id)
		o.mu.Unlock()
		o.notifyChanged()
		return nil
	}

	o.zCounter++
	st.zIndex = o.zCounter
	st.visible = true
	st.transitioning = true
	st.closing = false
	st.seq++
	seq := st.seq
	o.history = append(o.history, id)
	o.mu.Unlock()
	o.notifyChanged()

	o.afterWindow(func() {
		o.mu.Lock()
		st, ok := o.states[id]
		if !ok || reg.gen != gen || st.seq != seq {
			o.mu.Unlock()
			return
		}
		st.transitioning = false
		o.mu.Unlock()
		o.notifyChanged()
		if def.Opened != nil {
			def.Opened()
		}
	})
	return nil
}

// Close hides the overlay id, or the active overlay if id is empty. Closing
// an overlay first closes its visible children (ParentID == id) depth-first,
// so no overlay outlives the parent it was opened from; a child veto aborts
// the whole cascade including the parent. Closing an id that is not visible
// is a no-op.
func (o *Orchestrator) Close(ctx context.Context, id string) error {
	if id == "" {
		id = o.ActiveID()
		if id == "" {
			return nil
		}
	}
	return o.close(ctx, id, map[string]struct{}{})
}

// close is Close's cascade body. seen carries every id already on this
// cascade path; ParentID is caller data and nothing stops it from forming a
// cycle, so an id met twice is skipped instead of re-entering its opMu and
// deadlocking.
func (o *Orchestrator) close(ctx context.Context, id string, seen map[string]struct{}) error {
	if _, ok := seen[id]; ok {
		return nil
	}
	seen[id] = struct{}{}

	o.mu.Lock()
	reg, ok := o.defs[id]
	if !ok {
		o.mu.Unlock()
		o.logger.Warn("close: overlay not registered", "id", id)
		return opError("close", id, ErrNotRegistered)
	}
	gen := reg.gen
	def := reg.def
	o.mu.Unlock()

	// Queue behind any in-flight open/close for this id before looking at
	// its state, so a close issued mid-guard lands after that guard's
	// outcome instead of interleaving with it.
	reg.opMu.Lock()
	defer reg.opMu.Unlock()

	o.mu.Lock()
	st, exists := o.states[id]
	if reg.gen != gen || !exists || !st.visible || st.closing {
		o.mu.Unlock()
		return nil
	}
	children := o.visibleChildren(id)
	o.mu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		if err := o.close(ctx, children[i], seen); err != nil {
			return opError("close", id, fmt.Errorf("cascade %s: %w", children[i], err))
		}
	}

	if def.BeforeClose != nil {
		allow, err := def.BeforeClose(ctx)
		if err != nil {
			return o.hookFailed("close", id, def, err)
		}
		if !allow {
			return opError("close", id, ErrVetoed)
		}
	}

	o.mu.Lock()
	st, exists = o.states[id]
	if reg.gen != gen || !exists || !st.visible {
		o.mu.Unlock()
		o.logger.Debug("close discarded, overlay gone while guard ran", "id", id)
		return nil
	}
	st.transitioning = true
	st.closing = true
	st.lastAccessedAt = time.Now()
	st.seq++
	seq := st.seq
	o.mu.Unlock()
	o.notifyChanged()

	o.afterWindow(func() {
		o.mu.Lock()
		st, ok := o.states[id]
		if !ok || reg.gen != gen || st.seq != seq {
			o.mu.Unlock()
			return
		}
		st.visible = false
		st.transitioning = false
		st.closing = false
		o.removeFromHistory(id)
		o.mu.Unlock()
		o.notifyChanged()
		if def.Closed != nil {
			def.Closed()
		}
	})
	return nil
}

// CloseAll closes every open overlay from most to least recently opened. An
// overlay whose guard vetoes is skipped and left open; the sweep continues
// with the remainder, which keep their original relative order.
func (o *Orchestrator) CloseAll(ctx context.Context) {
	hist := o.History()
	for i := len(hist) - 1; i >= 0; i-- {
		if err := o.Close(ctx, hist[i]); err != nil {
			if errors.Is(err, ErrVetoed) {
				o.logger.Debug("close-all: overlay vetoed close, skipping", "id", hist[i])
				continue
			}
			o.logger.Warn("close-all: close failed", "id", hist[i], "error", err)
		}
	}
}

// IsVisible reports whether id is currently shown.
func (o *Orchestrator) IsVisible(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.states[id]
	return ok && st.visible
}

// IsTransitioning reports whether id is inside an enter/exit window. Callers
// must not assume Visible alone reflects interactivity.
func (o *Orchestrator) IsTransitioning(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.states[id]
	return ok && st.transitioning
}

// ZIndex returns the stacking order value for id, or 0 if it has never been
// opened. Values increase monotonically and are never reused, so relative
// recency is always recoverable.
func (o *Orchestrator) ZIndex(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.states[id]; ok {
		return st.zIndex
	}
	return 0
}

// ActiveID returns the topmost open overlay — the sole recipient of Escape —
// or "" when nothing is open.
func (o *Orchestrator) ActiveID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.history) == 0 {
		return ""
	}
	return o.history[len(o.history)-1]
}

// History returns the currently-open ids in open order.
func (o *Orchestrator) History() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.history))
	copy(out, o.history)
	return out
}

// StateOf returns a snapshot of the runtime state for id.
func (o *Orchestrator) StateOf(id string) (State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.states[id]
	if !ok {
		return State{}, false
	}
	return st.snapshot(), true
}

// DefinitionOf returns the registered definition for id.
func (o *Orchestrator) DefinitionOf(id string) (Definition, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	reg, ok := o.defs[id]
	if !ok {
		return Definition{}, false
	}
	return reg.def, true
}

// Prop resolves one argument for id. Resolution order: the overlay-injected
// value when present and non-nil, then direct, then fallback. This lets a
// dialog declare an ordinary local default while still being fully driven by
// whatever the orchestrator was told to open it with.
func (o *Orchestrator) Prop(id, key string, direct, fallback any) any {
	o.mu.Lock()
	if st, ok := o.states[id]; ok {
		if v, ok := st.args[key]; ok && v != nil {
			o.mu.Unlock()
			return v
		}
	}
	o.mu.Unlock()
	if direct != nil {
		return direct
	}
	return fallback
}

// SetProp mutates a single argument on a live overlay without a close/reopen
// cycle, for wizard-style chaining where one dialog feeds data another open
// dialog is reading. On a hidden overlay the value is also stashed for the
// next Open, which folds it into that open's payload exactly once.
func (o *Orchestrator) SetProp(id, key string, value any) error {
	o.mu.Lock()
	if _, ok := o.defs[id]; !ok {
		o.mu.Unlock()
		o.logger.Warn("set-prop: overlay not registered", "id", id)
		return opError("set-prop", id, ErrNotRegistered)
	}
	st, ok := o.states[id]
	if !ok {
		st = &record{createdAt: time.Now(), args: Args{}}
		o.states[id] = st
	}
	if st.args == nil {
		st.args = Args{}
	}
	st.args[key] = value
	if !st.visible {
		// Not live yet; stash the value so the next Open picks it up
		if st.pending == nil {
			st.pending = Args{}
		}
		st.pending[key] = value
	}
	st.lastAccessedAt = time.Now()
	o.mu.Unlock()
	o.notifyChanged()
	return nil
}

// hookFailed routes a guard error to the definition's OnError when set,
// otherwise logs it. The wrapped error is returned either way so callers that
// await the operation observe the outcome.
func (o *Orchestrator) hookFailed(op, id string, def Definition, err error) error {
	werr := opError(op, id, err)
	if def.OnError != nil {
		def.OnError(werr)
	} else {
		o.logger.Warn("overlay guard failed", "op", op, "id", id, "error", err)
	}
	return werr
}

// afterWindow runs fn when the transition window elapses, or immediately when
// no window is configured.
func (o *Orchestrator) afterWindow(fn func()) {
	if o.transition <= 0 {
		fn()
		return
	}
	time.AfterFunc(o.transition, fn)
}

func (o *Orchestrator) notifyChanged() {
	if o.notify != nil {
		o.notify()
	}
}

// indexInHistory returns the position of id in the history stack, or -1.
// Callers hold o.mu.
func (o *Orchestrator) indexInHistory(id string) int {
	for i, h := range o.history {
		if h == id {
			return i
		}
	}
	return -1
}

// removeFromHistory removes id at its actual position; any open overlay, not
// only the most recent, can be closed directly. Callers hold o.mu.
func (o *Orchestrator) removeFromHistory(id string) {
	if i := o.indexInHistory(id); i >= 0 {
		o.history = append(o.history[:i], o.history[i+1:]...)
	}
}

// moveToTail makes id the active overlay. Callers hold o.mu.
func (o *Orchestrator) moveToTail(id string) {
	o.removeFromHistory(id)
	o.history = append(o.history, id)
}

// visibleChildren returns the open ids whose definition declares id as
// parent, in open order. A self-referencing parent is ignored. Callers hold
// o.mu.
func (o *Orchestrator) visibleChildren(id string) []string {
	var out []string
	for _, h := range o.history {
		if h == id {
			continue
		}
		if reg, ok := o.defs[h]; ok && reg.def.ParentID == id {
			out = append(out, h)
		}
	}
	return out
}
