// Package kvtest holds a conformance suite run against every kv.Store
// implementation.
package kvtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-lsh/kv"
	"golang.org/x/sync/errgroup"
)

// Collections is the collection set every Opener is called with.
var Collections = []string{"primary", "band_0", "band_1"}

// Opener returns a fresh, empty store opened with collections.
type Opener func(t *testing.T, collections []string) kv.Store

var errAbort = errors.New("abort")

// Run executes the conformance suite.
func Run(t *testing.T, open Opener) {
	t.Run("PutGetDelete", func(t *testing.T) { testPutGetDelete(t, open) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, open) })
	t.Run("ReadYourWrites", func(t *testing.T) { testReadYourWrites(t, open) })
	t.Run("ForEachOrder", func(t *testing.T) { testForEach(t, open) })
	t.Run("Empty", func(t *testing.T) { testEmpty(t, open) })
	t.Run("UnknownCollection", func(t *testing.T) { testUnknownCollection(t, open) })
	t.Run("SerializedWriters", func(t *testing.T) { testSerializedWriters(t, open) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, open) })
}

func testPutGetDelete(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	assert.ElementsMatch(t, Collections, s.Collections())

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		if err := w.Put("primary", []byte("k1"), []byte("v1")); err != nil {
			return err
		}
		return w.Put("band_0", []byte("k1"), []byte("other"))
	}))

	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		v, err := r.Get("primary", []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), v)

		v, err = r.Get("band_0", []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("other"), v)

		_, err = r.Get("band_1", []byte("k1"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		if err := w.Put("primary", []byte("k1"), []byte("v2")); err != nil {
			return err
		}
		if err := w.Delete("band_0", []byte("k1")); err != nil {
			return err
		}
		return w.Delete("band_1", []byte("absent"))
	}))

	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		v, err := r.Get("primary", []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), v)

		_, err = r.Get("band_0", []byte("k1"))
		assert.ErrorIs(t, err, kv.ErrNotFound)

		n, err := r.Count("band_0")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		return nil
	}))
}

func testRollback(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		return w.Put("primary", []byte("keep"), []byte("1"))
	}))

	err := s.Update(ctx, func(w kv.Writer) error {
		if err := w.Put("primary", []byte("new"), []byte("2")); err != nil {
			return err
		}
		if err := w.Put("band_0", []byte("d"), []byte("3")); err != nil {
			return err
		}
		if err := w.Delete("primary", []byte("keep")); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		v, err := r.Get("primary", []byte("keep"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), v)
		_, err = r.Get("primary", []byte("new"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		n, err := r.Count("band_0")
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
}

func testReadYourWrites(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		require.NoError(t, w.Put("band_1", []byte("a"), []byte("x")))
		v, err := w.Get("band_1", []byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), v)
		n, err := w.Count("band_1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		require.NoError(t, w.Delete("band_1", []byte("a")))
		_, err = w.Get("band_1", []byte("a"))
		assert.ErrorIs(t, err, kv.ErrNotFound)
		return nil
	}))
}

func testForEach(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		for _, k := range []string{"c", "a", "b"} {
			if err := w.Put("band_0", []byte(k), []byte("v"+k)); err != nil {
				return err
			}
		}
		return nil
	}))

	var keys []string
	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		return r.ForEach("band_0", func(k, v []byte) error {
			assert.Equal(t, "v"+string(k), string(v))
			keys = append(keys, string(k))
			return nil
		})
	}))
	assert.Equal(t, []string{"a", "b", "c"}, keys)

	visited := 0
	err := s.View(ctx, func(r kv.Reader) error {
		return r.ForEach("band_0", func(k, v []byte) error {
			visited++
			return errAbort
		})
	})
	assert.ErrorIs(t, err, errAbort)
	assert.Equal(t, 1, visited)
}

func testEmpty(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	isEmpty := func(r kv.Reader, collection string) bool {
		empty, err := r.Empty(collection)
		require.NoError(t, err)
		return empty
	}

	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		assert.True(t, isEmpty(r, "band_0"))
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		require.NoError(t, w.Put("band_0", []byte("d"), []byte("v")))
		assert.False(t, isEmpty(w, "band_0"))
		assert.True(t, isEmpty(w, "band_1"))
		return nil
	}))
	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		assert.False(t, isEmpty(r, "band_0"))
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(w kv.Writer) error {
		return w.Delete("band_0", []byte("d"))
	}))
	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		assert.True(t, isEmpty(r, "band_0"))
		_, err := r.Empty("band_9")
		assert.ErrorIs(t, err, kv.ErrUnknownCollection)
		return nil
	}))
}

func testUnknownCollection(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	err := s.View(ctx, func(r kv.Reader) error {
		_, err := r.Get("band_9", []byte("k"))
		return err
	})
	assert.ErrorIs(t, err, kv.ErrUnknownCollection)

	err = s.Update(ctx, func(w kv.Writer) error {
		return w.Put("nope", []byte("k"), []byte("v"))
	})
	assert.ErrorIs(t, err, kv.ErrUnknownCollection)
}

// testSerializedWriters runs concurrent read-modify-write increments against
// one key; with serialized writers no increment may be lost.
func testSerializedWriters(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	defer s.Close()

	const workers, rounds = 4, 25
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < rounds; i++ {
				err := s.Update(ctx, func(tx kv.Writer) error {
					v, err := tx.Get("primary", []byte("counter"))
					if err != nil && !errors.Is(err, kv.ErrNotFound) {
						return err
					}
					n := 0
					if v != nil {
						if _, err := fmt.Sscanf(string(v), "%d", &n); err != nil {
							return err
						}
					}
					return tx.Put("primary", []byte("counter"), []byte(fmt.Sprint(n+1)))
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, s.View(ctx, func(r kv.Reader) error {
		v, err := r.Get("primary", []byte("counter"))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprint(workers*rounds), string(v))
		return nil
	}))
}

func testClosed(t *testing.T, open Opener) {
	ctx := context.Background()
	s := open(t, Collections)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err := s.View(ctx, func(kv.Reader) error {
		t.Errorf("View callback ran after Close")
		return nil
	})
	assert.ErrorIs(t, err, kv.ErrClosed)
	err = s.Update(ctx, func(kv.Writer) error {
		t.Errorf("Update callback ran after Close")
		return nil
	})
	assert.ErrorIs(t, err, kv.ErrClosed)
}
