package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// ErrNotFound is returned by lookups for a tool number that has no row.
var ErrNotFound = errors.New("tool not found")

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

// Column order of offsets and tools is part of the batch interchange format.
func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS offsets (
		idn      INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE NOT NULL,
		Chk      INTEGER NOT NULL DEFAULT 0,
		Tool     INTEGER NOT NULL,
		Pocket   INTEGER NOT NULL DEFAULT 0,
		X        REAL NOT NULL DEFAULT 0.0,
		Y        REAL NOT NULL DEFAULT 0.0,
		Z        REAL NOT NULL DEFAULT 0.0,
		A        REAL NOT NULL DEFAULT 0.0,
		B        REAL NOT NULL DEFAULT 0.0,
		C        REAL NOT NULL DEFAULT 0.0,
		U        REAL NOT NULL DEFAULT 0.0,
		V        REAL NOT NULL DEFAULT 0.0,
		W        REAL NOT NULL DEFAULT 0.0,
		Diameter REAL NOT NULL DEFAULT 0.0,
		I        REAL NOT NULL DEFAULT 0.0,
		J        REAL NOT NULL DEFAULT 0.0,
		Q        INTEGER NOT NULL DEFAULT 0,
		Comment  TEXT NOT NULL DEFAULT 'New tool'
	);

	CREATE TABLE IF NOT EXISTS tools (
		idn    INTEGER PRIMARY KEY,
		TOOL   INTEGER NOT NULL,
		TIME   REAL NOT NULL DEFAULT 0.0,
		RPM    INTEGER NOT NULL DEFAULT 0,
		CPT    REAL NOT NULL DEFAULT 0.0,
		LENGTH REAL NOT NULL DEFAULT 0.0,
		FLUTES INTEGER NOT NULL DEFAULT 0,
		FEED   INTEGER NOT NULL DEFAULT 0,
		MFG    TEXT NOT NULL DEFAULT '',
		ICON   TEXT NOT NULL DEFAULT 'not_found.png'
	);

	CREATE INDEX IF NOT EXISTS idx_offsets_tool ON offsets(Tool);
	CREATE INDEX IF NOT EXISTS idx_tools_tool   ON tools(TOOL);

	CREATE TABLE IF NOT EXISTS tool_usage (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		tool       INTEGER NOT NULL,
		start_time TEXT NOT NULL,
		end_time   TEXT NOT NULL,
		seconds    INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_usage_tool ON tool_usage(tool);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('metric_display', 'true'),
		('edit_mode',      'false');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/tooldb/tool_database.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "tooldb", "tool_database.db"), nil
}
