// Package store persists SSH profiles and saved commands in sqlite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sshdeck/sshdeck/internal/domain"
)

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	host        TEXT NOT NULL,
	port        INTEGER NOT NULL DEFAULT 22,
	user        TEXT NOT NULL DEFAULT '',
	auth_type   TEXT NOT NULL DEFAULT 'agent',
	key_path    TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS saved_commands (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	command     TEXT NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_profiles_name ON profiles(name);
`

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema is at
// the current version.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	ver, err := currentSchemaVersion(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}
	if ver < schemaVersion {
		if err := migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// currentSchemaVersion returns the schema version from schema_meta, or 0 for
// a fresh database.
func currentSchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("DELETE FROM schema_meta"); err != nil {
		return err
	}
	_, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion)
	return err
}

// Profiles returns all profiles ordered by name.
func (s *Store) Profiles() ([]domain.Profile, error) {
	rows, err := s.db.Query(`
		SELECT id, name, host, port, user, auth_type, key_path, tags, created_at, updated_at
		FROM profiles ORDER BY name
	`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		var p domain.Profile
		var tags, created, updated string
		var auth string
		if err := rows.Scan(&p.ID, &p.Name, &p.Host, &p.Port, &p.User, &auth, &p.KeyPath, &tags, &created, &updated); err != nil {
			return nil, &domain.StoreError{Op: "list", Err: err}
		}
		p.AuthType = domain.AuthType(auth)
		p.Tags = splitTags(tags)
		p.CreatedAt = parseTime(created)
		p.UpdatedAt = parseTime(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveProfile inserts or updates a profile. A missing ID gets a fresh uuid.
func (s *Store) SaveProfile(p domain.Profile) (domain.Profile, error) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO profiles (id, name, host, port, user, auth_type, key_path, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, host=excluded.host, port=excluded.port,
			user=excluded.user, auth_type=excluded.auth_type,
			key_path=excluded.key_path, tags=excluded.tags,
			updated_at=excluded.updated_at
	`, p.ID, p.Name, p.Host, p.Port, p.User, string(p.AuthType), p.KeyPath,
		joinTags(p.Tags), p.CreatedAt.Format(timeLayout), p.UpdatedAt.Format(timeLayout))
	if err != nil {
		return domain.Profile{}, &domain.StoreError{Op: "save", ID: p.ID, Err: err}
	}
	return p, nil
}

// DeleteProfile removes a profile by id.
func (s *Store) DeleteProfile(id string) error {
	res, err := s.db.Exec("DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return &domain.StoreError{Op: "delete", ID: id, Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.StoreError{Op: "delete", ID: id, Err: domain.ErrNotFound}
	}
	return nil
}

// DeleteAllProfiles wipes every profile; used by the vault reset flow.
func (s *Store) DeleteAllProfiles() error {
	if _, err := s.db.Exec("DELETE FROM profiles"); err != nil {
		return &domain.StoreError{Op: "delete-all", Err: err}
	}
	return nil
}

// BackupTo writes a compacted snapshot of the database to path.
func (s *Store) BackupTo(path string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", path); err != nil {
		return &domain.StoreError{Op: "backup", Err: err}
	}
	return nil
}

// SavedCommands returns all saved commands ordered by name.
func (s *Store) SavedCommands() ([]domain.SavedCommand, error) {
	rows, err := s.db.Query(`
		SELECT id, name, command, created_at FROM saved_commands ORDER BY name
	`)
	if err != nil {
		return nil, &domain.StoreError{Op: "list-commands", Err: err}
	}
	defer rows.Close()

	var out []domain.SavedCommand
	for rows.Next() {
		var c domain.SavedCommand
		var created string
		if err := rows.Scan(&c.ID, &c.Name, &c.Command, &created); err != nil {
			return nil, &domain.StoreError{Op: "list-commands", Err: err}
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCommand inserts or updates a saved command.
func (s *Store) SaveCommand(c domain.SavedCommand) (domain.SavedCommand, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO saved_commands (id, name, command, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, command=excluded.command
	`, c.ID, c.Name, c.Command, c.CreatedAt.Format(timeLayout))
	if err != nil {
		return domain.SavedCommand{}, &domain.StoreError{Op: "save-command", ID: c.ID, Err: err}
	}
	return c, nil
}

const timeLayout = "2006-01-02 15:04:05"

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
