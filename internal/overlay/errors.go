package overlay

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrNotRegistered = errors.New("overlay not registered")
	ErrVetoed        = errors.New("vetoed by guard")
)

var errAlreadyInstalled = errors.New("key router already installed")

// Error wraps an orchestrator failure with the operation and overlay id.
type Error struct {
	Op  string // "open", "close", "register", ...
	ID  string
	Err error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("overlay %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("overlay %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op, id string, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}
