package sqlitekv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/viant/sqlite-lsh/engine"
	"github.com/viant/sqlite-lsh/kv"
)

// Store is a kv.Store backed by a SQLite database file.
type Store struct {
	path        string
	writer      *sql.DB
	reader      *sql.DB
	collections []string
	tables      map[string]string
	logger      *slog.Logger
	closed      atomic.Bool
}

// Open opens or creates the database at path and ensures a table exists for
// every collection. Pass ":memory:" for a private, volatile database; it is
// served by a single connection shared by readers and the writer.
func Open(ctx context.Context, path string, collections []string, opts ...Option) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := kv.ValidateCollections(collections); err != nil {
		return nil, err
	}
	o := newOptions(opts)

	writer, err := engine.OpenWith(path, engine.Options{
		BusyTimeout: o.busyTimeout,
		JournalMode: o.journalMode,
		TxLock:      engine.TxLockImmediate,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitekv: open %s: %w", path, err)
	}
	writer.SetMaxOpenConns(1)
	if err := EnsureSchema(ctx, writer, collections); err != nil {
		_ = writer.Close()
		return nil, err
	}

	reader := writer
	if !engine.IsMemory(path) {
		reader, err = engine.OpenWith(path, engine.Options{
			BusyTimeout: o.busyTimeout,
			TxLock:      engine.TxLockDeferred,
		})
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("sqlitekv: open reader %s: %w", path, err)
		}
	}

	s := &Store{
		path:        path,
		writer:      writer,
		reader:      reader,
		collections: append([]string(nil), collections...),
		tables:      make(map[string]string, len(collections)),
		logger:      o.logger,
	}
	for _, c := range collections {
		s.tables[c] = TableName(c)
	}
	s.logger.Debug("sqlitekv: opened", "path", path, "collections", len(collections))
	return s, nil
}

// Collections implements kv.Store.
func (s *Store) Collections() []string { return append([]string(nil), s.collections...) }

// View runs fn inside a read transaction.
func (s *Store) View(ctx context.Context, fn func(kv.Reader) error) error {
	if s.closed.Load() {
		return kv.ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.reader.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&txn{ctx: ctx, tx: tx, tables: s.tables})
}

// Update runs fn inside a write transaction and commits if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(kv.Writer) error) error {
	if s.closed.Load() {
		return kv.ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&txn{ctx: ctx, tx: tx, tables: s.tables}); err != nil {
		return err
	}
	return tx.Commit()
}

// Close releases both connection pools. It is safe to call more than once.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	var errs []error
	if s.reader != s.writer {
		errs = append(errs, s.reader.Close())
	}
	errs = append(errs, s.writer.Close())
	s.logger.Debug("sqlitekv: closed", "path", s.path)
	return errors.Join(errs...)
}

type txn struct {
	ctx    context.Context
	tx     *sql.Tx
	tables map[string]string
}

func (t *txn) table(collection string) (string, error) {
	name, ok := t.tables[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", kv.ErrUnknownCollection, collection)
	}
	return name, nil
}

func (t *txn) Get(collection string, key []byte) ([]byte, error) {
	table, err := t.table(collection)
	if err != nil {
		return nil, err
	}
	var v []byte
	err = t.tx.QueryRowContext(t.ctx, `SELECT v FROM `+table+` WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

func (t *txn) Count(collection string) (int, error) {
	table, err := t.table(collection)
	if err != nil {
		return 0, err
	}
	var n int
	if err := t.tx.QueryRowContext(t.ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *txn) Empty(collection string) (bool, error) {
	table, err := t.table(collection)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := t.tx.QueryRowContext(t.ctx, `SELECT EXISTS(SELECT 1 FROM `+table+`)`).Scan(&exists); err != nil {
		return false, err
	}
	return !exists, nil
}

func (t *txn) ForEach(collection string, fn func(key, value []byte) error) error {
	table, err := t.table(collection)
	if err != nil {
		return err
	}
	rows, err := t.tx.QueryContext(t.ctx, `SELECT k, v FROM `+table+` ORDER BY k`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (t *txn) Put(collection string, key, value []byte) error {
	table, err := t.table(collection)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	_, err = t.tx.ExecContext(t.ctx, `INSERT INTO `+table+`(k, v) VALUES(?, ?)
ON CONFLICT(k) DO UPDATE SET v = excluded.v`, key, value)
	return err
}

func (t *txn) Delete(collection string, key []byte) error {
	table, err := t.table(collection)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(t.ctx, `DELETE FROM `+table+` WHERE k = ?`, key)
	return err
}

// Ensure Store satisfies the kv.Store interface.
var _ kv.Store = (*Store)(nil)
