package archive

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	// defaultJournalMode is used when the config leaves the mode unset.
	defaultJournalMode = "wal"

	// defaultBusyTimeout bounds waits on a locked archive before SQLITE_BUSY.
	defaultBusyTimeout = 5 * time.Second
)

// journalModes are the pragma values SQLite accepts. The mode is interpolated
// into the PRAGMA statement, so anything else is rejected up front.
var journalModes = map[string]bool{
	"delete":   true,
	"truncate": true,
	"persist":  true,
	"memory":   true,
	"wal":      true,
	"off":      true,
}

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sql.Tx) error
}

// MigrationRunner prepares an archive database: connection pragmas from the
// archive config, then any schema migrations not yet recorded.
type MigrationRunner struct {
	db *sql.DB

	// JournalMode is the sqlite journal_mode pragma ("wal" when empty).
	JournalMode string

	// BusyTimeout is how long a locked database is retried before failing.
	BusyTimeout time.Duration

	migrations []migration
}

// NewMigrationRunner creates a MigrationRunner with all registered migrations
// and default pragmas.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{
		db:          db,
		JournalMode: defaultJournalMode,
		BusyTimeout: defaultBusyTimeout,
		migrations: []migration{
			{Version: 1, Name: "initial_schema", Apply: migrateV001},
		},
	}
}

// Run applies connection pragmas and all pending migrations in order.
func (r *MigrationRunner) Run() error {
	mode := strings.ToLower(strings.TrimSpace(r.JournalMode))
	if mode == "" {
		mode = defaultJournalMode
	}
	if !journalModes[mode] {
		return fmt.Errorf("unsupported journal mode %q", r.JournalMode)
	}
	if _, err := r.db.Exec("PRAGMA journal_mode = " + mode); err != nil {
		return fmt.Errorf("set journal mode %s: %w", mode, err)
	}

	if r.BusyTimeout > 0 {
		if _, err := r.db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", r.BusyTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}

	// Foreign keys are per-connection in SQLite and off by default.
	if _, err := r.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := r.appliedVersions()
	if err != nil {
		return fmt.Errorf("read applied migrations: %w", err)
	}

	for _, m := range r.migrations {
		if applied[m.Version] {
			continue
		}
		if err := r.apply(m); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// appliedVersions returns the set of migration versions already recorded.
func (r *MigrationRunner) appliedVersions() (map[int]bool, error) {
	rows, err := r.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// apply executes a migration inside a transaction and records it.
func (r *MigrationRunner) apply(m migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := m.Apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
