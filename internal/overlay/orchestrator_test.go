package overlay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(opts ...Option) *Orchestrator {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithLogger(quiet)}, opts...)...)
}

func mustRegister(t *testing.T, o *Orchestrator, def Definition) {
	t.Helper()
	require.NoError(t, o.Register(def))
}

func TestOpen_NotRegistered(t *testing.T) {
	o := newTestOrchestrator()

	err := o.Open(context.Background(), "ghost", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.False(t, o.IsVisible("ghost"))
	assert.Empty(t, o.History())
}

func TestOpen_SetsVisibleAndMergesArgs(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:          "profile-form",
		DefaultArgs: Args{"mode": "create", "port": 22},
	})

	err := o.Open(context.Background(), "profile-form", Args{"mode": "edit"})

	require.NoError(t, err)
	assert.True(t, o.IsVisible("profile-form"))
	assert.Equal(t, "profile-form", o.ActiveID())
	assert.Equal(t, []string{"profile-form"}, o.History())
	// caller keys win over defaults, untouched defaults survive
	assert.Equal(t, "edit", o.Prop("profile-form", "mode", nil, nil))
	assert.Equal(t, 22, o.Prop("profile-form", "port", nil, nil))
}

func TestOpen_TransitionWindow(t *testing.T) {
	opened := make(chan struct{})
	o := newTestOrchestrator(WithTransition(20 * time.Millisecond))
	mustRegister(t, o, Definition{
		ID:     "settings",
		Opened: func() { close(opened) },
	})

	require.NoError(t, o.Open(context.Background(), "settings", nil))

	assert.True(t, o.IsVisible("settings"))
	assert.True(t, o.IsTransitioning("settings"))

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("Opened hook never fired")
	}
	assert.False(t, o.IsTransitioning("settings"))
	assert.True(t, o.IsVisible("settings"))
}

func TestOpen_GuardVeto(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:         "unlock",
		BeforeOpen: func(context.Context) (bool, error) { return false, nil },
	})

	err := o.Open(context.Background(), "unlock", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVetoed)
	assert.False(t, o.IsVisible("unlock"))
	assert.Empty(t, o.History())
}

func TestOpen_GuardErrorRoutedToOnError(t *testing.T) {
	boom := errors.New("vault offline")
	var routed error
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:         "unlock",
		BeforeOpen: func(context.Context) (bool, error) { return false, boom },
		OnError:    func(err error) { routed = err },
	})

	err := o.Open(context.Background(), "unlock", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, routed)
	assert.ErrorIs(t, routed, boom)
	assert.False(t, o.IsVisible("unlock"))
}

func TestOpen_BringToFront(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a"})
	mustRegister(t, o, Definition{ID: "b"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", Args{"step": 1}))
	require.NoError(t, o.Open(ctx, "b", nil))
	zA, zB := o.ZIndex("a"), o.ZIndex("b")
	require.Greater(t, zB, zA)

	// Re-opening a does not duplicate it in history; it gets a fresh z-index,
	// fresh args and becomes active, with no transition.
	require.NoError(t, o.Open(ctx, "a", Args{"step": 2}))

	assert.Equal(t, []string{"b", "a"}, o.History())
	assert.Equal(t, "a", o.ActiveID())
	assert.Greater(t, o.ZIndex("a"), zB)
	assert.Equal(t, 2, o.Prop("a", "step", nil, nil))
	assert.False(t, o.IsTransitioning("a"))
}

func TestClose_IdempotentWhenNotVisible(t *testing.T) {
	closed := false
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a", Closed: func() { closed = true }})

	require.NoError(t, o.Close(context.Background(), "a"))
	assert.False(t, closed)
}

func TestClose_NoOpWithoutActive(t *testing.T) {
	o := newTestOrchestrator()
	require.NoError(t, o.Close(context.Background(), ""))
}

func TestClose_DefaultsToActive(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a"})
	mustRegister(t, o, Definition{ID: "b"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", nil))
	require.NoError(t, o.Open(ctx, "b", nil))

	require.NoError(t, o.Close(ctx, ""))

	assert.False(t, o.IsVisible("b"))
	assert.True(t, o.IsVisible("a"))
	assert.Equal(t, "a", o.ActiveID())
}

func TestClose_GuardVetoKeepsVisible(t *testing.T) {
	closed := false
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:          "unlock",
		BeforeClose: func(context.Context) (bool, error) { return false, nil },
		Closed:      func() { closed = true },
	})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "unlock", nil))
	err := o.Close(ctx, "unlock")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVetoed)
	assert.True(t, o.IsVisible("unlock"))
	assert.False(t, closed)
	assert.Equal(t, []string{"unlock"}, o.History())
}

func TestClose_RestoresPreviousActive(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a"})
	mustRegister(t, o, Definition{ID: "b"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", nil))
	require.NoError(t, o.Open(ctx, "b", nil))
	require.NoError(t, o.Close(ctx, "b"))

	assert.Equal(t, "a", o.ActiveID())
	assert.True(t, o.IsVisible("a"))
	assert.False(t, o.IsVisible("b"))
}

func TestClose_RemovesFromMiddleOfHistory(t *testing.T) {
	o := newTestOrchestrator()
	for _, id := range []string{"a", "b", "c"} {
		mustRegister(t, o, Definition{ID: id})
	}

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, o.Open(ctx, id, nil))
	}

	// Any open overlay can be closed directly, not only the most recent.
	require.NoError(t, o.Close(ctx, "b"))

	assert.Equal(t, []string{"a", "c"}, o.History())
	assert.Equal(t, "c", o.ActiveID())
}

func TestClose_CascadeChildren(t *testing.T) {
	var order []string
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:     "settings",
		Closed: func() { order = append(order, "settings") },
	})
	mustRegister(t, o, Definition{
		ID:       "reset-confirm",
		ParentID: "settings",
		Closed:   func() { order = append(order, "reset-confirm") },
	})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "settings", nil))
	require.NoError(t, o.Open(ctx, "reset-confirm", nil))

	require.NoError(t, o.Close(ctx, "settings"))

	assert.False(t, o.IsVisible("settings"))
	assert.False(t, o.IsVisible("reset-confirm"))
	assert.Empty(t, o.History())
	// child never outlives its parent
	assert.Equal(t, []string{"reset-confirm", "settings"}, order)
}

func TestClose_ChildVetoBlocksParent(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "settings"})
	mustRegister(t, o, Definition{
		ID:          "reset-confirm",
		ParentID:    "settings",
		BeforeClose: func(context.Context) (bool, error) { return false, nil },
	})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "settings", nil))
	require.NoError(t, o.Open(ctx, "reset-confirm", nil))

	err := o.Close(ctx, "settings")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVetoed)
	assert.True(t, o.IsVisible("settings"))
	assert.True(t, o.IsVisible("reset-confirm"))
}

func TestCloseAll_MostRecentFirst(t *testing.T) {
	var order []string
	o := newTestOrchestrator()
	for _, id := range []string{"a", "b", "c"} {
		id := id
		mustRegister(t, o, Definition{ID: id, Closed: func() { order = append(order, id) }})
	}

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, o.Open(ctx, id, nil))
	}

	o.CloseAll(ctx)

	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.Empty(t, o.History())
	assert.Equal(t, "", o.ActiveID())
}

func TestCloseAll_VetoSurvivorsKeepOrder(t *testing.T) {
	veto := func(context.Context) (bool, error) { return false, nil }
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a", BeforeClose: veto})
	mustRegister(t, o, Definition{ID: "b"})
	mustRegister(t, o, Definition{ID: "c", BeforeClose: veto})

	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, o.Open(ctx, id, nil))
	}

	o.CloseAll(ctx)

	assert.Equal(t, []string{"a", "c"}, o.History())
	assert.True(t, o.IsVisible("a"))
	assert.False(t, o.IsVisible("b"))
	assert.True(t, o.IsVisible("c"))
}

func TestRegister_ReplaceWhileOpenKeepsRuntimeState(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "settings", DefaultArgs: Args{"tab": "general"}})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "settings", Args{"tab": "vault"}))

	// Replacing the template must not touch the live instance.
	mustRegister(t, o, Definition{ID: "settings", DefaultArgs: Args{"tab": "theme"}})

	assert.True(t, o.IsVisible("settings"))
	assert.Equal(t, "vault", o.Prop("settings", "tab", nil, nil))

	// The replacement applies from the next cycle.
	require.NoError(t, o.Close(ctx, "settings"))
	require.NoError(t, o.Open(ctx, "settings", nil))
	assert.Equal(t, "theme", o.Prop("settings", "tab", nil, nil))
}

func TestRegister_EmptyID(t *testing.T) {
	o := newTestOrchestrator()
	require.Error(t, o.Register(Definition{}))
}

func TestUnregister_ForceClosesDespiteVeto(t *testing.T) {
	closed := false
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID:          "profile-form",
		BeforeClose: func(context.Context) (bool, error) { return false, nil },
		Closed:      func() { closed = true },
	})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "profile-form", nil))

	o.Unregister("profile-form")

	assert.True(t, closed)
	assert.False(t, o.IsVisible("profile-form"))
	assert.Empty(t, o.History())
	_, ok := o.StateOf("profile-form")
	assert.False(t, ok)
	_, ok = o.DefinitionOf("profile-form")
	assert.False(t, ok)
}

func TestUnregister_StaleGuardDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID: "backup",
		BeforeOpen: func(context.Context) (bool, error) {
			close(started)
			<-release
			return true, nil
		},
	})

	done := make(chan error, 1)
	go func() { done <- o.Open(context.Background(), "backup", nil) }()

	<-started
	o.Unregister("backup")
	close(release)

	// The guard resolution is stale: it must never mutate state.
	require.NoError(t, <-done)
	assert.False(t, o.IsVisible("backup"))
	assert.Empty(t, o.History())
	_, ok := o.StateOf("backup")
	assert.False(t, ok)
}

func TestOrdering_CloseQueuesBehindOpenGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var closedOnce sync.Once
	closed := make(chan struct{})
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{
		ID: "commands",
		BeforeOpen: func(context.Context) (bool, error) {
			close(started)
			<-release
			return true, nil
		},
		Closed: func() { closedOnce.Do(func() { close(closed) }) },
	})

	openDone := make(chan error, 1)
	closeDone := make(chan error, 1)
	go func() { openDone <- o.Open(context.Background(), "commands", nil) }()
	<-started
	go func() { closeDone <- o.Close(context.Background(), "commands") }()

	// Give the close a moment to park behind the pending open guard, then
	// release: the open must land first, the close after it.
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-openDone)
	require.NoError(t, <-closeDone)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Closed hook never fired")
	}
	assert.False(t, o.IsVisible("commands"))
	assert.Empty(t, o.History())
}

func TestProp_ResolutionOrder(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "modal-x"})
	require.NoError(t, o.Open(context.Background(), "modal-x", Args{"k": 1, "nilval": nil}))

	// overlay-injected value wins over direct value
	assert.Equal(t, 1, o.Prop("modal-x", "k", 2, 0))
	// direct value wins over the fallback when the overlay has none
	assert.Equal(t, 2, o.Prop("modal-x", "missing", 2, 0))
	// nil overlay values are skipped
	assert.Equal(t, 2, o.Prop("modal-x", "nilval", 2, 0))
	// fallback when nothing else resolves
	assert.Equal(t, 0, o.Prop("modal-x", "missing", nil, 0))
	// unknown overlay falls through the same chain
	assert.Equal(t, 0, o.Prop("nope", "k", nil, 0))
}

func TestSetProp_LiveMutation(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "profile-form"})
	require.NoError(t, o.Open(context.Background(), "profile-form", nil))

	require.NoError(t, o.SetProp("profile-form", "command", "ssh -p 2222 host"))

	assert.Equal(t, "ssh -p 2222 host", o.Prop("profile-form", "command", nil, nil))
}

func TestSetProp_NotRegistered(t *testing.T) {
	o := newTestOrchestrator()
	err := o.SetProp("ghost", "k", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestZIndex_MonotonicAcrossCloses(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a"})
	mustRegister(t, o, Definition{ID: "b"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", nil))
	z1 := o.ZIndex("a")
	require.NoError(t, o.Close(ctx, "a"))
	require.NoError(t, o.Open(ctx, "b", nil))
	require.NoError(t, o.Open(ctx, "a", nil))

	// z-index values are never reused or decremented, even across closes.
	assert.Greater(t, o.ZIndex("b"), z1)
	assert.Greater(t, o.ZIndex("a"), o.ZIndex("b"))
}

func TestState_PersistsWhileHidden(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "backup"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "backup", Args{"path": "/tmp/x"}))
	created, ok := o.StateOf("backup")
	require.True(t, ok)
	require.NoError(t, o.Close(ctx, "backup"))

	// Runtime state survives the close cycle so args and timestamps stay
	// readable while hidden.
	st, ok := o.StateOf("backup")
	require.True(t, ok)
	assert.False(t, st.Visible)
	assert.Equal(t, "/tmp/x", st.Args["path"])
	assert.Equal(t, created.CreatedAt, st.CreatedAt)
	assert.False(t, st.LastAccessedAt.Before(created.LastAccessedAt))
}

func TestNotify_FiresOnMutation(t *testing.T) {
	var mu sync.Mutex
	count := 0
	o := newTestOrchestrator(WithNotify(func() {
		mu.Lock()
		count++
		mu.Unlock()
	}))
	mustRegister(t, o, Definition{ID: "a"})

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", nil))
	require.NoError(t, o.Close(ctx, "a"))

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, count, 0)
}

func TestInvariant_HistoryEntriesVisible(t *testing.T) {
	o := newTestOrchestrator()
	for _, id := range []string{"a", "b", "c"} {
		mustRegister(t, o, Definition{ID: id})
	}

	ctx := context.Background()
	require.NoError(t, o.Open(ctx, "a", nil))
	require.NoError(t, o.Open(ctx, "b", nil))
	require.NoError(t, o.Open(ctx, "c", nil))
	require.NoError(t, o.Close(ctx, "b"))
	require.NoError(t, o.Open(ctx, "a", nil))

	for _, id := range o.History() {
		assert.True(t, o.IsVisible(id), "history entry %s must be visible", id)
	}
	hist := o.History()
	require.NotEmpty(t, hist)
	assert.Equal(t, hist[len(hist)-1], o.ActiveID())
}

func TestSetProp_SurvivesSubsequentOpen(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "profile-form", DefaultArgs: Args{"mode": "create"}})

	require.NoError(t, o.SetProp("profile-form", "command", "ssh deploy@db1"))
	require.NoError(t, o.Open(context.Background(), "profile-form", Args{"mode": "edit"}))

	assert.Equal(t, "ssh deploy@db1", o.Prop("profile-form", "command", nil, nil),
		"a prop injected while hidden should still be readable after open")
	assert.Equal(t, "edit", o.Prop("profile-form", "mode", nil, nil),
		"open args win over defaults")
}

func TestOpen_FreshOpenDropsPriorArgs(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "profile-form", DefaultArgs: Args{"mode": "create"}})
	ctx := context.Background()

	require.NoError(t, o.Open(ctx, "profile-form", Args{"profile": "old-edit-target", "mode": "edit"}))
	require.NoError(t, o.Close(ctx, "profile-form"))
	require.NoError(t, o.Open(ctx, "profile-form", nil))

	assert.Nil(t, o.Prop("profile-form", "profile", nil, nil),
		"args from a prior open must not leak into a later open that did not supply them")
	assert.Equal(t, "create", o.Prop("profile-form", "mode", nil, nil),
		"omitted keys fall back to the definition defaults")
}

func TestSetProp_WhileHiddenAppliesToOneOpenOnly(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "profile-form"})
	ctx := context.Background()

	require.NoError(t, o.SetProp("profile-form", "command", "ssh deploy@db1"))
	require.NoError(t, o.Open(ctx, "profile-form", nil))
	assert.Equal(t, "ssh deploy@db1", o.Prop("profile-form", "command", nil, nil))

	require.NoError(t, o.Close(ctx, "profile-form"))
	require.NoError(t, o.Open(ctx, "profile-form", nil))
	assert.Nil(t, o.Prop("profile-form", "command", nil, nil),
		"a hidden-injected prop is consumed by the first open, not replayed forever")
}

func TestClose_ParentCycleTerminates(t *testing.T) {
	o := newTestOrchestrator()
	mustRegister(t, o, Definition{ID: "a", ParentID: "b"})
	mustRegister(t, o, Definition{ID: "b", ParentID: "a"})
	ctx := context.Background()

	require.NoError(t, o.Open(ctx, "a", nil))
	require.NoError(t, o.Open(ctx, "b", nil))

	done := make(chan error, 1)
	go func() { done <- o.Close(ctx, "a") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return; cascade looped on the parent cycle")
	}

	assert.False(t, o.IsVisible("a"))
	assert.False(t, o.IsVisible("b"))
	assert.Empty(t, o.History())
}
