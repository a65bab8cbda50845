package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyTimeoutMillis bounds how long one attempt waits on a locked store.
const busyTimeoutMillis = 1000

// TableName derives the record table from the store path: the base name cut
// at its first ".". "/r/build/build.db" gives "build".
func TableName(storePath string) string {
	name := filepath.Base(storePath)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if name == "/" {
		return ""
	}
	return name
}

// quoteIdent quotes name as an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// open opens an existing store with a single connection and a bounded busy
// timeout. A missing file is ErrStoreMissing; the driver would otherwise
// create it.
func open(storePath string) (*sql.DB, string, error) {
	if storePath == "" {
		return nil, "", ErrNoStore
	}
	table := TableName(storePath)
	if table == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidStoreName, storePath)
	}
	if _, err := os.Stat(storePath); err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrStoreMissing, storePath)
		}
		return nil, "", fmt.Errorf("failed to stat store: %w", err)
	}

	db, err := connect(storePath)
	if err != nil {
		return nil, "", err
	}
	return db, table, nil
}

// connect opens storePath, creating it if needed.
func connect(storePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure store: %w", err)
	}
	return db, nil
}

// isConstraint reports whether err is an SQLite constraint violation.
func isConstraint(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// Create creates the store file and its record table if absent. Calling it
// again for an existing store is a no-op.
func Create(storePath string) error {
	table := TableName(storePath)
	if table == "" {
		return fmt.Errorf("%w: %s", ErrInvalidStoreName, storePath)
	}

	if err := os.MkdirAll(filepath.Dir(storePath), 0750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := connect(storePath)
	if err != nil {
		return err
	}
	defer db.Close()

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(path TEXT, UNIQUE(path))", quoteIdent(table))
	if _, err := db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// Paths returns every recorded path in the store, sorted.
func Paths(storePath string) ([]string, error) {
	db, table, err := open(storePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT path FROM %s ORDER BY path", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p sql.NullString
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		if p.Valid {
			paths = append(paths, p.String)
		}
	}
	return paths, rows.Err()
}

// Count returns the number of recorded paths in the store.
func Count(storePath string) (int, error) {
	db, table, err := open(storePath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var n int
	row := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table)))
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count paths: %w", err)
	}
	return n, nil
}
