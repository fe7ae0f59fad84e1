// Package domain contains the core data types for sshdeck.
package domain

import "time"

// Profile is a saved SSH connection profile.
type Profile struct {
	ID        string
	Name      string
	Host      string
	Port      int
	User      string
	AuthType  AuthType
	KeyPath   string // path to the private key when AuthType is AuthKey
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthType selects how a profile authenticates.
type AuthType string

const (
	AuthPassword AuthType = "password"
	AuthKey      AuthType = "key"
	AuthAgent    AuthType = "agent"
)

// Address returns the user@host:port form used for display.
func (p Profile) Address() string {
	host := p.Host
	if p.Port != 0 && p.Port != 22 {
		host = fmtAddr(host, p.Port)
	}
	if p.User == "" {
		return host
	}
	return p.User + "@" + host
}

// SavedCommand is a reusable command snippet run against a profile.
type SavedCommand struct {
	ID        string
	Name      string
	Command   string
	CreatedAt time.Time
}
