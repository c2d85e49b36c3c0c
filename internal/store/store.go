package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 3

// Store holds the audit status of every imported game
type Store struct {
	db *sql.DB
	x  *sqlx.DB
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	BulkImport bool // Relax durability pragmas for large combine runs
}

// Open opens or creates a SQLite database at the given path with default options
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens path in WAL mode on a single connection and migrates
// the schema.
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// game imports serialize on the one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, x: sqlx.NewDb(db, "sqlite")}
	if opts.BulkImport {
		if err := s.applyBulkPragmas(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply bulk import pragmas: %w", err)
		}
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

var bulkPragmas = []string{
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA cache_size = -64000", // KiB
}

func (s *Store) applyBulkPragmas() error {
	for _, pragma := range bulkPragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// SQLiteVersion reports the version of the linked SQLite library, or ""
func SQLiteVersion() string {
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.Get(&version, "SELECT sqlite_version()"); err != nil {
		return ""
	}
	return version
}

// CheckIntegrity fails unless PRAGMA integrity_check answers "ok"
func (s *Store) CheckIntegrity() error {
	var problems []string
	if err := s.x.Select(&problems, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if len(problems) == 1 && problems[0] == "ok" {
		return nil
	}
	return fmt.Errorf("integrity check failed: %s", strings.Join(problems, "; "))
}

// SchemaVersion returns the applied schema version
func (s *Store) SchemaVersion() (int, error) {
	return s.getSchemaVersion()
}

// migrations are applied in order; each runs once
var migrations = []struct {
	version int
	name    string
	sql     string
}{
	{1, "status and audit tables", schemaV1},
	{2, "rollup views", schemaV2},
	{3, "pitch-app imported flag", schemaV3},
}

// migrate brings the schema up to currentSchemaVersion in one transaction
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply schema v%d (%s): %w", m.version, m.name, err)
		}
		if err := s.setSchemaVersion(tx, m.version); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// getSchemaVersion is 0 on a fresh file
func (s *Store) getSchemaVersion() (int, error) {
	var tables int
	if err := s.x.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`); err != nil {
		return 0, err
	}
	if tables == 0 {
		return 0, nil
	}

	var version int
	err := s.x.Get(&version, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	return version, err
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
