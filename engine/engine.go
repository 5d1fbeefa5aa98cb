package engine

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Memory is the DSN of a private in-memory database.
const Memory = ":memory:"

// TxLock controls the locking mode used by BEGIN for transactions started on
// a connection.
type TxLock string

const (
	// TxLockDeferred acquires locks lazily, on first read or write.
	TxLockDeferred TxLock = "deferred"
	// TxLockImmediate reserves the write lock when the transaction starts, so
	// a read-modify-write sequence can never observe a stale snapshot.
	TxLockImmediate TxLock = "immediate"
)

// Options configures the connection-level pragmas encoded into a DSN.
type Options struct {
	// BusyTimeout is how long a connection waits on a locked database before
	// failing with SQLITE_BUSY. Zero leaves the driver default.
	BusyTimeout time.Duration

	// JournalMode sets PRAGMA journal_mode (e.g. "WAL"). Ignored for
	// in-memory databases.
	JournalMode string

	// TxLock selects the BEGIN mode for transactions.
	TxLock TxLock
}

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// OpenWith builds a DSN for path using opts and opens it.
func OpenWith(path string, opts Options) (*sql.DB, error) {
	dsn, err := DSN(path, opts)
	if err != nil {
		return nil, err
	}
	return Open(dsn)
}

// DSN returns path with the query parameters understood by the driver
// (_pragma, _txlock) appended.
func DSN(path string, opts Options) (string, error) {
	if path == "" {
		return "", fmt.Errorf("engine: empty database path")
	}
	if strings.ContainsRune(path, '?') {
		return "", fmt.Errorf("engine: database path %q must not contain a query", path)
	}
	q := url.Values{}
	if opts.BusyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	}
	if opts.JournalMode != "" && !IsMemory(path) {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", opts.JournalMode))
	}
	switch opts.TxLock {
	case "":
	case TxLockDeferred, TxLockImmediate:
		q.Set("_txlock", string(opts.TxLock))
	default:
		return "", fmt.Errorf("engine: unsupported tx lock %q", opts.TxLock)
	}
	if len(q) == 0 {
		return path, nil
	}
	return path + "?" + q.Encode(), nil
}

// IsMemory reports whether path names an in-memory database.
func IsMemory(path string) bool {
	return path == Memory || strings.HasPrefix(path, "file::memory:")
}
