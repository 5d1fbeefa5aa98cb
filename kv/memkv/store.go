// Package memkv implements kv.Store in memory on github.com/google/btree.
//
// Every read transaction works on lazy copy-on-write clones of the committed
// trees, so it sees a stable snapshot and never waits for a writer. Write
// transactions are serialized; each one mutates its own clones and commits
// by swapping them in.
package memkv

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/viant/sqlite-lsh/kv"
)

const degree = 32

type item struct {
	key   []byte
	value []byte
}

func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

// Store is a volatile kv.Store.
type Store struct {
	writeMu     sync.Mutex // serializes Update
	mu          sync.Mutex // guards trees and closed; btree.Clone mutates its receiver
	trees       map[string]*btree.BTree
	collections []string
	closed      bool
}

// Open returns an empty store with the given collections.
func Open(collections ...string) (*Store, error) {
	if err := kv.ValidateCollections(collections); err != nil {
		return nil, err
	}
	s := &Store{
		trees:       make(map[string]*btree.BTree, len(collections)),
		collections: append([]string(nil), collections...),
	}
	for _, c := range collections {
		s.trees[c] = btree.New(degree)
	}
	return s, nil
}

// Collections implements kv.Store.
func (s *Store) Collections() []string { return append([]string(nil), s.collections...) }

func (s *Store) snapshot() (map[string]*btree.BTree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, kv.ErrClosed
	}
	out := make(map[string]*btree.BTree, len(s.trees))
	for name, tree := range s.trees {
		out[name] = tree.Clone()
	}
	return out, nil
}

// View runs fn against a snapshot of the committed state.
func (s *Store) View(ctx context.Context, fn func(kv.Reader) error) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	trees, err := s.snapshot()
	if err != nil {
		return err
	}
	return fn(&txn{trees: trees})
}

// Update runs fn against private clones of the committed state and publishes
// them if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(kv.Writer) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	trees, err := s.snapshot()
	if err != nil {
		return err
	}
	if err := fn(&txn{trees: trees}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	s.trees = trees
	return nil
}

// Close drops all data. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.trees = nil
	return nil
}

type txn struct {
	trees map[string]*btree.BTree
}

func (t *txn) tree(collection string) (*btree.BTree, error) {
	tree, ok := t.trees[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", kv.ErrUnknownCollection, collection)
	}
	return tree, nil
}

func (t *txn) Get(collection string, key []byte) ([]byte, error) {
	tree, err := t.tree(collection)
	if err != nil {
		return nil, err
	}
	found := tree.Get(item{key: key})
	if found == nil {
		return nil, kv.ErrNotFound
	}
	return bytes.Clone(found.(item).value), nil
}

func (t *txn) Count(collection string) (int, error) {
	tree, err := t.tree(collection)
	if err != nil {
		return 0, err
	}
	return tree.Len(), nil
}

func (t *txn) Empty(collection string) (bool, error) {
	tree, err := t.tree(collection)
	if err != nil {
		return false, err
	}
	return tree.Len() == 0, nil
}

func (t *txn) ForEach(collection string, fn func(key, value []byte) error) error {
	tree, err := t.tree(collection)
	if err != nil {
		return err
	}
	var ferr error
	tree.Ascend(func(i btree.Item) bool {
		it := i.(item)
		ferr = fn(bytes.Clone(it.key), bytes.Clone(it.value))
		return ferr == nil
	})
	return ferr
}

func (t *txn) Put(collection string, key, value []byte) error {
	tree, err := t.tree(collection)
	if err != nil {
		return err
	}
	v := bytes.Clone(value)
	if v == nil {
		v = []byte{}
	}
	tree.ReplaceOrInsert(item{key: bytes.Clone(key), value: v})
	return nil
}

func (t *txn) Delete(collection string, key []byte) error {
	tree, err := t.tree(collection)
	if err != nil {
		return err
	}
	tree.Delete(item{key: key})
	return nil
}

var _ kv.Store = (*Store)(nil)
