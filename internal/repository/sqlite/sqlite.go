// Package sqlite implements the repository interfaces on SQLite.
//
// We use modernc.org/sqlite rather than mattn/go-sqlite3 because it is a
// pure Go translation of the SQLite sources — no CGo, no C toolchain,
// trivial cross-compilation. Tests open ":memory:" databases.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool. The per-entity repositories
// (feed.go, user.go, place.go) share it; the server owns the lifecycle:
// New opens and migrates, Close releases the file lock on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath (":memory:" for an in-memory database)
// and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — the usual
	// choice for a web server on SQLite.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite; feeds reference users and
	// places, so turn enforcement on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a migration tracker would be overkill at this size.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			email      TEXT PRIMARY KEY,
			nickname   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS places (
			id           TEXT PRIMARY KEY,
			place_name   TEXT NOT NULL,
			address_name TEXT NOT NULL,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating places table: %w", err)
	}

	// Feed ids are system-assigned positive integers; AUTOINCREMENT keeps
	// deleted ids from being reused.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS feeds (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			title      TEXT NOT NULL,
			score      INTEGER NOT NULL,
			content    TEXT NOT NULL,
			file_path  TEXT NOT NULL,
			user_email TEXT NOT NULL REFERENCES users(email),
			place_id   TEXT NOT NULL REFERENCES places(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_feeds_user_email ON feeds(user_email);
		CREATE INDEX IF NOT EXISTS idx_feeds_created_at ON feeds(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating feeds table: %w", err)
	}

	return nil
}
