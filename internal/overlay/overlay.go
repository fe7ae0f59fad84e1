// Package overlay is the orchestration engine for every modal dialog and
// slide-in drawer in the application. Feature components register a
// Definition once and then ask the Orchestrator to open and close it with
// arguments; visibility, stacking order, argument payloads and Escape routing
// all live here, never in the components themselves.
package overlay

import "context"

// Kind classifies an overlay for stacking/visual treatment. It does not
// affect orchestration logic.
type Kind int

const (
	// KindModal is a centered dialog.
	KindModal Kind = iota
	// KindDrawer is a side panel that slides in from an edge.
	KindDrawer
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindDrawer:
		return "drawer"
	default:
		return "modal"
	}
}

// Args is an overlay argument payload. Keys are per-overlay and ad hoc;
// callers that need type safety wrap Prop in their own accessors.
type Args map[string]any

// Clone returns a shallow copy of the payload.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// mergeArgs lays supplied over defaults; supplied keys win.
func mergeArgs(defaults, supplied Args) Args {
	out := make(Args, len(defaults)+len(supplied))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range supplied {
		out[k] = v
	}
	return out
}

// Definition is the static, re-registerable template for an overlay.
// Registering again under the same ID replaces the template used on the next
// open/close cycle without touching live runtime state.
//
// All hooks are optional. BeforeOpen and BeforeClose are guards: they may
// block (a password verification round-trip, a dirty-form confirmation) and
// returning false or an error aborts the operation with no state mutated.
// Opened and Closed are fire-and-forget notifications that run after the
// transition window. OnError receives guard failures when set.
type Definition struct {
	ID             string
	Kind           Kind
	ParentID       string
	NonDismissable bool
	DefaultArgs    Args

	BeforeOpen  func(ctx context.Context) (bool, error)
	Opened      func()
	BeforeClose func(ctx context.Context) (bool, error)
	Closed      func()
	OnError     func(err error)
}
