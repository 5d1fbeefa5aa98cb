// Package engine provides helpers for working with the modernc.org/sqlite
// driver in this module: building DSNs with connection pragmas and opening
// connections. It intentionally keeps a thin surface so storage packages can
// share the same driver instance.
package engine
