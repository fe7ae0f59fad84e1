package domain

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// Sentinel errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate")
	ErrVaultLocked  = errors.New("vault locked")
	ErrUserCanceled = errors.New("user canceled")
)

// StoreError represents an error from the profile store.
type StoreError struct {
	Op  string // Operation: "list", "save", "delete", etc.
	ID  string // Optional: specific record id
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s [%s]: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func fmtAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
