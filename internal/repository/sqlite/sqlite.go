// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C
// toolchain, cross-compiles like any other Go package. It registers itself
// with database/sql under the driver name "sqlite".
//
// Schema changes live in migrations/*.sql, embedded into the binary and
// applied by goose when the database is opened.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// pragmas are applied by the driver to every pooled connection.
//   - foreign_keys: stories.user_id must reference a real user
//   - journal_mode(WAL): readers don't block the writer
//   - busy_timeout: wait instead of failing with SQLITE_BUSY under write contention
const pragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// DB wraps a sql.DB connection pool. Its own methods implement
// repository.StoryRepository; Users() exposes repository.UserRepository.
type DB struct {
	conn *sql.DB
}

// UserDB implements repository.UserRepository on the same pool as DB.
type UserDB struct {
	conn *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and applies
// pending migrations.
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't connect; Ping surfaces bad paths or permissions now
	// instead of on the first request.
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := NewFromConn(conn)

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// NewFromConn wraps an already-open pool without running migrations.
// Tests use it with go-sqlmock.
func NewFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Users returns the user repository sharing this pool.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + pragmas
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code() == sqlitelib.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
