package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB is a handle to one reconstruction database.
type DB struct {
	db   *sql.DB
	path string
}

// Open connects to the database at path, creating the file and schema when
// they do not exist yet.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := configureConn(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	d := &DB{db: conn, path: path}
	if err := d.applySchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return d, nil
}

// configureConn applies the session pragmas: WAL so readers do not block the
// writing stage, enforced foreign keys, and a busy timeout so a concurrent
// invocation queues briefly instead of failing outright.
func configureConn(conn *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Create initializes the database at path and closes it again. Opening an
// existing database is not an error; the schema ledger keeps the operation
// idempotent.
func Create(path string) error {
	handle, err := Open(path)
	if err != nil {
		return err
	}
	return handle.Close()
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}
