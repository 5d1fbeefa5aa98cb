// Package sqlitekv implements kv.Store on SQLite through the
// modernc.org/sqlite driver. Each collection is a WITHOUT ROWID table keyed by
// BLOB. Writes go through a single-connection pool whose transactions start
// with BEGIN IMMEDIATE; reads use a separate pool and, in WAL mode, see a
// consistent snapshot without blocking the writer.
package sqlitekv
