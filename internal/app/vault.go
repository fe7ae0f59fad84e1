package app

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vault gates access to the profile store behind a master password. The
// password itself is never stored; a salted hash lives next to the database.
type Vault struct {
	path string
	hash string
}

// NewVault loads the master password hash from path. A missing file means no
// password has been set yet; the first Verify then adopts the entered one.
func NewVault(path string) (*Vault, error) {
	v := &Vault{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, fmt.Errorf("read vault hash: %w", err)
	}
	v.hash = strings.TrimSpace(string(data))
	return v, nil
}

// IsSet reports whether a master password exists
func (v *Vault) IsSet() bool {
	return v.hash != ""
}

// Verify checks pw against the stored hash. On first use it stores the hash
// of pw and succeeds, establishing the master password.
func (v *Vault) Verify(pw string) bool {
	if pw == "" {
		return false
	}
	if v.hash == "" {
		if err := v.set(pw); err != nil {
			return false
		}
		return true
	}
	sum := hashPassword(pw)
	return subtle.ConstantTimeCompare([]byte(sum), []byte(v.hash)) == 1
}

// Change swaps the master password after verifying the current one.
func (v *Vault) Change(current, next string) error {
	if v.hash != "" && !v.Verify(current) {
		return errors.New("current password is wrong")
	}
	if next == "" {
		return errors.New("new password must not be empty")
	}
	return v.set(next)
}

// Reset removes the master password entirely.
func (v *Vault) Reset() error {
	v.hash = ""
	if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove vault hash: %w", err)
	}
	return nil
}

func (v *Vault) set(pw string) error {
	sum := hashPassword(pw)
	if err := os.MkdirAll(filepath.Dir(v.path), 0o700); err != nil {
		return fmt.Errorf("mkdir vault dir: %w", err)
	}
	if err := os.WriteFile(v.path, []byte(sum+"\n"), 0o600); err != nil {
		return fmt.Errorf("write vault hash: %w", err)
	}
	v.hash = sum
	return nil
}

func hashPassword(pw string) string {
	sum := sha256.Sum256([]byte("sshdeck:" + pw))
	return hex.EncodeToString(sum[:])
}
