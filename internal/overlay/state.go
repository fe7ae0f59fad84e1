package overlay

import "time"

// State is a read-only snapshot of an overlay's runtime record.
type State struct {
	Visible        bool
	Transitioning  bool
	ZIndex         int
	Args           Args
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// record is the mutable runtime state for one overlay id. It is created
// lazily on first open and survives close cycles (with visible=false) so
// argument payloads and timestamps remain readable while hidden. Only
// Unregister discards it.
type record struct {
	visible        bool
	transitioning  bool
	closing        bool // an exit window is in flight
	zIndex         int
	args           Args
	createdAt      time.Time
	lastAccessedAt time.Time

	// pending holds props injected through SetProp while the overlay was
	// hidden. The next Open folds them into the fresh payload exactly once;
	// they never leak into later opens.
	pending Args

	// seq increments on every open/close mutation; transition timers capture
	// it and bail out if a newer operation has superseded them.
	seq uint64
}

func (r *record) snapshot() State {
	return State{
		Visible:        r.visible,
		Transitioning:  r.transitioning,
		ZIndex:         r.zIndex,
		Args:           r.args.Clone(),
		CreatedAt:      r.createdAt,
		LastAccessedAt: r.lastAccessedAt,
	}
}
