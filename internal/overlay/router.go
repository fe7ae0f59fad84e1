package overlay

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// StateChangedMsg is sent into the program by the orchestrator's notify hook
// whenever overlay state mutates, so the view re-reads it.
type StateChangedMsg struct{}

// EscapeClosedMsg reports the outcome of an Escape-initiated close.
type EscapeClosedMsg struct {
	ID  string
	Err error
}

// Router is the single application-wide Escape handler. It is installed
// exactly once for the life of the program, never per dialog, and forwards
// Escape to the orchestrator's close routing.
type Router struct {
	orch *Orchestrator

	mu        sync.Mutex
	installed bool
}

// NewRouter creates a router for the given orchestrator.
func NewRouter(o *Orchestrator) *Router {
	return &Router{orch: o}
}

// Install activates the router. Installing twice is an error; the guard
// exists so a second wiring path cannot silently double-close overlays.
func (r *Router) Install() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed {
		return opError("install", "", errAlreadyInstalled)
	}
	r.installed = true
	return nil
}

// Uninstall deactivates the router on shutdown.
func (r *Router) Uninstall() {
	r.mu.Lock()
	r.installed = false
	r.mu.Unlock()
}

// Route inspects a key message. For Escape with an active overlay it returns
// (cmd, true) where cmd performs the guarded close, or (nil, true) when the
// active overlay is non-dismissable: Escape is swallowed entirely rather than
// falling through to close a different, dismissable overlay underneath. Every
// other key returns (nil, false).
func (r *Router) Route(msg tea.KeyMsg) (tea.Cmd, bool) {
	r.mu.Lock()
	installed := r.installed
	r.mu.Unlock()
	if !installed || msg.String() != "esc" {
		return nil, false
	}

	active := r.orch.ActiveID()
	if active == "" {
		return nil, false
	}
	if def, ok := r.orch.DefinitionOf(active); ok && def.NonDismissable {
		return nil, true
	}

	id := active
	return func() tea.Msg {
		return EscapeClosedMsg{ID: id, Err: r.orch.Close(context.Background(), id)}
	}, true
}
