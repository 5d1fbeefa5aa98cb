package lsh

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/sqlite-lsh/band"
	"github.com/viant/sqlite-lsh/codec"
	"github.com/viant/sqlite-lsh/kv"
	"github.com/viant/sqlite-lsh/kv/memkv"
	"github.com/viant/sqlite-lsh/params"
	"golang.org/x/sync/errgroup"
)

type backendCase struct {
	name string
	open func(t *testing.T, opts ...Option) *Index
}

func backends() []backendCase {
	return []backendCase{
		{
			name: "sqlite",
			open: func(t *testing.T, opts ...Option) *Index {
				t.Helper()
				x, err := Open(context.Background(), filepath.Join(t.TempDir(), "lsh.db"), opts...)
				require.NoError(t, err)
				t.Cleanup(func() { _ = x.Close() })
				return x
			},
		},
		{
			name: "memory",
			open: func(t *testing.T, opts ...Option) *Index {
				t.Helper()
				x, err := Open(context.Background(), "mem", append([]Option{WithBackend(Memory())}, opts...)...)
				require.NoError(t, err)
				t.Cleanup(func() { _ = x.Close() })
				return x
			},
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, open func(t *testing.T, opts ...Option) *Index)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) { fn(t, b.open) })
	}
}

var small = []Option{WithThreshold(0.5), WithSignatureLength(16)}

// dump returns every collection's raw contents, hex-encoded.
func dump(t *testing.T, x *Index) map[string]map[string]string {
	t.Helper()
	out := make(map[string]map[string]string)
	require.NoError(t, x.store.View(context.Background(), func(r kv.Reader) error {
		for _, c := range x.store.Collections() {
			m := make(map[string]string)
			if err := r.ForEach(c, func(k, v []byte) error {
				m[hex.EncodeToString(k)] = hex.EncodeToString(v)
				return nil
			}); err != nil {
				return err
			}
			out[c] = m
		}
		return nil
	}))
	return out
}

func TestIndex_InsertQueryContains(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		m1 := minhash(16, "a")
		m2 := minhash(16, "b")
		require.NoError(t, x.Insert(ctx, "a", m1))
		require.NoError(t, x.Insert(ctx, "b", m2))

		for _, key := range []string{"a", "b"} {
			ok, err := x.Contains(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok, key)
		}
		ok, err := x.Contains(ctx, "c")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := x.Query(ctx, m1)
		require.NoError(t, err)
		assert.Contains(t, got, "a")
		assert.NotContains(t, got, "b")

		got, err = x.Query(ctx, m2)
		require.NoError(t, err)
		assert.Contains(t, got, "b")

		n, err := x.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

// TestIndex_Scenario inserts two unrelated sets and removes one of them.
func TestIndex_Scenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		m1 := minhash(16, "minhash", "is", "a", "probabilistic", "data", "structure")
		m2 := minhash(16, "completely", "different", "words", "here")
		m3 := minhash(16, "minhash", "is", "a", "probabilistic", "data", "structures")

		require.NoError(t, x.Insert(ctx, "a", m1))
		require.NoError(t, x.Insert(ctx, "b", m2))

		got, err := x.Query(ctx, m1)
		require.NoError(t, err)
		assert.Contains(t, got, "a")
		got, err = x.Query(ctx, m2)
		require.NoError(t, err)
		assert.Contains(t, got, "b")
		_, err = x.Query(ctx, m3)
		require.NoError(t, err)

		require.NoError(t, x.Remove(ctx, "a"))
		ok, err := x.Contains(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)

		err = x.Remove(ctx, "a")
		assert.ErrorIs(t, err, ErrUnknownKey)
		err = x.Remove(ctx, "c")
		assert.ErrorIs(t, err, ErrUnknownKey)
	})
}

func TestIndex_DuplicateKeyLeavesStateUnchanged(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		require.NoError(t, x.Insert(ctx, "k", minhash(16, "x", "y")))
		before := dump(t, x)

		err := x.Insert(ctx, "k", minhash(16, "z"))
		require.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, before, dump(t, x))

		err = x.Insert(ctx, "k", minhash(16, "x", "y"))
		require.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, before, dump(t, x))
	})
}

func TestIndex_RemoveIsComplete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		sig := minhash(16, "p", "q")
		require.NoError(t, x.Insert(ctx, codec.Tuple{"doc", 1}, sig))
		require.NoError(t, x.Remove(ctx, codec.Tuple{"doc", 1}))

		ok, err := x.Contains(ctx, codec.Tuple{"doc", 1})
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := x.Query(ctx, sig)
		require.NoError(t, err)
		assert.Empty(t, got)

		for c, entries := range dump(t, x) {
			assert.Empty(t, entries, c)
		}
		assert.ErrorIs(t, x.Remove(ctx, codec.Tuple{"doc", 1}), ErrUnknownKey)
	})
}

func TestIndex_EmptyProperty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		empty, err := x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)

		require.NoError(t, x.Insert(ctx, "a", minhash(16, "a")))
		require.NoError(t, x.Insert(ctx, "b", minhash(16, "b")))
		empty, err = x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.False(t, empty)

		require.NoError(t, x.Remove(ctx, "a"))
		empty, err = x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.False(t, empty)

		require.NoError(t, x.Remove(ctx, "b"))
		empty, err = x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

func TestIndex_SignatureLength(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		err := x.Insert(ctx, "c", minhash(18, "c"))
		require.ErrorIs(t, err, ErrSignatureLengthMismatch)
		var sle *SignatureLengthError
		require.ErrorAs(t, err, &sle)
		assert.Equal(t, 16, sle.Expected)
		assert.Equal(t, 18, sle.Actual)

		_, err = x.Query(ctx, minhash(18, "c"))
		assert.ErrorIs(t, err, ErrSignatureLengthMismatch)
		_, err = x.Query(ctx, nil)
		assert.ErrorIs(t, err, ErrSignatureLengthMismatch)

		ok, err := x.Contains(ctx, "c")
		require.NoError(t, err)
		assert.False(t, ok)
		empty, err := x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

// TestIndex_PostingCleanup checks that a bucket is deleted from storage, not
// left empty, once its last key is removed.
func TestIndex_PostingCleanup(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		sig := minhash(16, "shared")
		require.NoError(t, x.Insert(ctx, "first", sig))
		require.NoError(t, x.Insert(ctx, "second", sig))

		digest := x.hasher.Digest(sig, x.params.Ranges[0])
		posting := func() ([]byte, error) {
			var raw []byte
			err := x.store.View(ctx, func(r kv.Reader) error {
				var err error
				raw, err = r.Get(BandCollection(0), digest)
				return err
			})
			return raw, err
		}

		raw, err := posting()
		require.NoError(t, err)
		keys, err := codec.DecodeKeys(raw)
		require.NoError(t, err)
		assert.Len(t, keys, 2)

		require.NoError(t, x.Remove(ctx, "first"))
		raw, err = posting()
		require.NoError(t, err)
		keys, err = codec.DecodeKeys(raw)
		require.NoError(t, err)
		require.Len(t, keys, 1)
		k, err := codec.DecodeKey(keys[0])
		require.NoError(t, err)
		assert.Equal(t, "second", k)

		require.NoError(t, x.Remove(ctx, "second"))
		_, err = posting()
		assert.ErrorIs(t, err, kv.ErrNotFound)
		for i := 0; i < x.B(); i++ {
			assert.Empty(t, dump(t, x)[BandCollection(i)])
		}
	})
}

// TestIndex_RemoveToleratesDriftedPostings corrupts two postings of a key
// behind the index's back; removal must still complete.
func TestIndex_RemoveToleratesDriftedPostings(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		collector := &BasicMetricsCollector{}
		x := open(t, append([]Option{WithParams(4, 4), WithMetricsCollector(collector)}, small...)...)

		sig := minhash(16, "drift")
		require.NoError(t, x.Insert(ctx, "a", sig))

		other, err := codec.EncodeKey("ghost")
		require.NoError(t, err)
		require.NoError(t, x.store.Update(ctx, func(w kv.Writer) error {
			d0 := x.hasher.Digest(sig, x.params.Ranges[0])
			if err := w.Put(BandCollection(0), d0, codec.EncodeKeys([][]byte{other})); err != nil {
				return err
			}
			return w.Delete(BandCollection(1), x.hasher.Digest(sig, x.params.Ranges[1]))
		}))

		require.NoError(t, x.Remove(ctx, "a"))
		assert.EqualValues(t, 2, collector.AnomalyCount.Load())

		ok, err := x.Contains(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)

		// The unrelated key left in band 0 is untouched.
		got, err := x.Query(ctx, sig)
		require.NoError(t, err)
		assert.Equal(t, []any{"ghost"}, got)
	})
}

func TestIndex_CorruptPrimaryRecord(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		require.NoError(t, x.Insert(ctx, "a", minhash(16, "a")))
		encoded, err := codec.EncodeKey("a")
		require.NoError(t, err)

		require.NoError(t, x.store.Update(ctx, func(w kv.Writer) error {
			return w.Put(PrimaryCollection, encoded, []byte{0xc1})
		}))
		assert.ErrorIs(t, x.Remove(ctx, "a"), ErrCorruptRecord)

		require.NoError(t, x.store.Update(ctx, func(w kv.Writer) error {
			return w.Put(PrimaryCollection, encoded, codec.EncodeDigests([][]byte{{1}}))
		}))
		if x.B() != 1 {
			assert.ErrorIs(t, x.Remove(ctx, "a"), ErrCorruptRecord)
		}

		ok, err := x.Contains(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestIndex_UnsupportedKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		assert.ErrorIs(t, x.Insert(ctx, 1.5, minhash(16, "a")), ErrUnsupportedKeyType)
		_, err := x.Contains(ctx, struct{}{})
		assert.ErrorIs(t, err, ErrUnsupportedKeyType)
		assert.ErrorIs(t, x.Remove(ctx, nil), ErrUnsupportedKeyType)

		empty, err := x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

func TestIndex_KeyShapes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		sig := minhash(16, "same")
		require.NoError(t, x.Insert(ctx, 7, sig))
		require.NoError(t, x.Insert(ctx, codec.Tuple{"doc", -3}, sig))
		require.NoError(t, x.Insert(ctx, "7", sig))

		// int and int64 share one encoding.
		assert.ErrorIs(t, x.Insert(ctx, int64(7), sig), ErrDuplicateKey)

		got, err := x.Query(ctx, sig)
		require.NoError(t, err)
		assert.Equal(t, []any{int64(7), codec.Tuple{"doc", int64(-3)}, "7"}, got)
	})
}

func TestIndex_InsertBatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		require.NoError(t, x.InsertBatch(ctx, nil))
		require.NoError(t, x.InsertBatch(ctx, []Entry{
			{Key: "a", Signature: minhash(16, "a")},
			{Key: "a2", Signature: minhash(16, "a")},
			{Key: "b", Signature: minhash(16, "b")},
		}))
		got, err := x.Query(ctx, minhash(16, "a"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []any{"a", "a2"}, got)

		before := dump(t, x)

		err = x.InsertBatch(ctx, []Entry{
			{Key: "c", Signature: minhash(16, "c")},
			{Key: "c", Signature: minhash(16, "d")},
		})
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, before, dump(t, x))

		err = x.InsertBatch(ctx, []Entry{
			{Key: "c", Signature: minhash(16, "c")},
			{Key: "b", Signature: minhash(16, "b")},
		})
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, before, dump(t, x))

		err = x.InsertBatch(ctx, []Entry{
			{Key: "c", Signature: minhash(16, "c")},
			{Key: "d", Signature: minhash(4, "d")},
		})
		assert.ErrorIs(t, err, ErrSignatureLengthMismatch)
		assert.Equal(t, before, dump(t, x))
	})
}

func TestIndex_Counts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, append([]Option{WithParams(4, 4)}, small...)...)

		shared := minhash(16, "s")
		require.NoError(t, x.Insert(ctx, "a", shared))
		require.NoError(t, x.Insert(ctx, "b", shared))
		require.NoError(t, x.Insert(ctx, "c", minhash(16, "c")))

		counts, err := x.Counts(ctx)
		require.NoError(t, err)
		require.Len(t, counts, 4)
		for i, byDigest := range counts {
			d := hex.EncodeToString(x.hasher.Digest(shared, x.params.Ranges[i]))
			assert.Equal(t, 2, byDigest[d], "band %d", i)
			assert.Len(t, byDigest, 2, "band %d", i)
		}
	})
}

// TestIndex_ConcurrentInsertsSameBucket drives concurrent writers into the
// same buckets; none of the appended keys may be lost.
func TestIndex_ConcurrentInsertsSameBucket(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)

		const n = 24
		sig := minhash(16, "hot")
		var g errgroup.Group
		for i := 0; i < n; i++ {
			g.Go(func() error { return x.Insert(ctx, fmt.Sprintf("k%02d", i), sig) })
		}
		require.NoError(t, g.Wait())

		got, err := x.Query(ctx, sig)
		require.NoError(t, err)
		assert.Len(t, got, n)

		counts, err := x.Counts(ctx)
		require.NoError(t, err)
		for i, byDigest := range counts {
			assert.Equal(t, map[string]int{hex.EncodeToString(x.hasher.Digest(sig, x.params.Ranges[i])): n}, byDigest)
		}

		var rg errgroup.Group
		for i := 0; i < n; i++ {
			rg.Go(func() error { return x.Remove(ctx, fmt.Sprintf("k%02d", i)) })
		}
		require.NoError(t, rg.Wait())
		empty, err := x.IsEmpty(ctx)
		require.NoError(t, err)
		assert.True(t, empty)
	})
}

func TestIndex_Closed(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, small...)
		sig := minhash(16, "a")
		require.NoError(t, x.Insert(ctx, "a", sig))

		require.NoError(t, x.Close())
		require.NoError(t, x.Close())

		assert.ErrorIs(t, x.Insert(ctx, "b", sig), ErrClosed)
		assert.ErrorIs(t, x.InsertBatch(ctx, []Entry{{Key: "b", Signature: sig}}), ErrClosed)
		assert.ErrorIs(t, x.Remove(ctx, "a"), ErrClosed)
		_, err := x.Query(ctx, sig)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = x.QueryBands(ctx, sig, 1)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = x.Contains(ctx, "a")
		assert.ErrorIs(t, err, ErrClosed)
		_, err = x.IsEmpty(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = x.Len(ctx)
		assert.ErrorIs(t, err, ErrClosed)
		_, err = x.Counts(ctx)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestIndex_QueryBandsNotImplemented(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		x := open(t, small...)
		_, err := x.QueryBands(context.Background(), minhash(16, "a"), 2)
		assert.ErrorIs(t, err, ErrNotImplemented)
	})
}

// TestIndex_UnusedTrailingPositions uses a layout covering only part of the
// signature; the uncovered positions never influence digests.
func TestIndex_UnusedTrailingPositions(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open func(t *testing.T, opts ...Option) *Index) {
		ctx := context.Background()
		x := open(t, WithSignatureLength(8), WithParams(2, 3))
		assert.Equal(t, []band.Range{{Start: 0, End: 3}, {Start: 3, End: 6}}, x.Ranges())

		a := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
		b := []uint64{1, 2, 3, 4, 5, 6, 99, 100}
		require.NoError(t, x.Insert(ctx, "a", a))
		got, err := x.Query(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, []any{"a"}, got)
	})
}

func TestIndex_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	x, err := Open(ctx, path, small...)
	require.NoError(t, err)
	sig := minhash(16, "persist")
	require.NoError(t, x.Insert(ctx, "p", sig))
	require.NoError(t, x.Close())

	x, err = Open(ctx, path, small...)
	require.NoError(t, err)
	defer x.Close()

	ok, err := x.Contains(ctx, "p")
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := x.Query(ctx, sig)
	require.NoError(t, err)
	assert.Equal(t, []any{"p"}, got)
	require.NoError(t, x.Remove(ctx, "p"))
}

func TestOpen_LayoutMismatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "layout.db")
	h16 := WithSignatureLength(16)

	x, err := Open(ctx, path, h16, WithParams(4, 4))
	require.NoError(t, err)
	require.NoError(t, x.Insert(ctx, "a", minhash(16, "a")))
	require.NoError(t, x.Close())

	for name, opts := range map[string][]Option{
		"bands":  {h16, WithParams(2, 8)},
		"hasher": {h16, WithParams(4, 4), WithHasher(band.Raw{})},
	} {
		_, err := Open(ctx, path, opts...)
		assert.ErrorIs(t, err, ErrLayoutMismatch, name)
	}

	x, err = Open(ctx, path, h16, WithParams(4, 4))
	require.NoError(t, err)
	defer x.Close()
	got, err := x.Query(ctx, minhash(16, "a"))
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got)
	require.NoError(t, x.Remove(ctx, "a"))
}

// flakyStore fails every View once armed.
type flakyStore struct {
	kv.Store
	fail atomic.Bool
}

var errUnavailable = errors.New("store unavailable")

func (s *flakyStore) View(ctx context.Context, fn func(kv.Reader) error) error {
	if s.fail.Load() {
		return errUnavailable
	}
	return s.Store.View(ctx, fn)
}

func TestIndex_ReadErrors(t *testing.T) {
	ctx := context.Background()
	var store *flakyStore
	backend := func(_ context.Context, _ string, collections []string) (kv.Store, error) {
		inner, err := memkv.Open(collections...)
		if err != nil {
			return nil, err
		}
		store = &flakyStore{Store: inner}
		return store, nil
	}
	x, err := Open(ctx, "flaky", WithBackend(backend), WithSignatureLength(16), WithParams(4, 4))
	require.NoError(t, err)
	defer x.Close()

	store.fail.Store(true)
	empty, err := x.IsEmpty(ctx)
	assert.ErrorIs(t, err, errUnavailable)
	assert.False(t, empty)
	ok, err := x.Contains(ctx, "a")
	assert.ErrorIs(t, err, errUnavailable)
	assert.False(t, ok)
	_, err = x.Query(ctx, minhash(16, "a"))
	assert.ErrorIs(t, err, errUnavailable)
}

func TestOpen_Layout(t *testing.T) {
	ctx := context.Background()
	mem := WithBackend(Memory())

	balanced, err := Open(ctx, "a", mem, WithThreshold(0.8))
	require.NoError(t, err)
	defer balanced.Close()
	empty, err := balanced.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	recall, err := Open(ctx, "b", mem, WithThreshold(0.8), WithWeights(params.Weights{FalsePositive: 0.2, FalseNegative: 0.8}))
	require.NoError(t, err)
	defer recall.Close()

	assert.Less(t, balanced.B(), recall.B())
	assert.Greater(t, balanced.R(), recall.R())
	assert.Equal(t, DefaultSignatureLength, balanced.SignatureLength())
	assert.Equal(t, 0.8, balanced.Threshold())
	assert.Equal(t, params.DefaultWeights, balanced.Weights())
	assert.Equal(t, "a", balanced.Location())
	assert.Equal(t, params.Weights{FalsePositive: 0.2, FalseNegative: 0.8}, recall.Weights())
	assert.Len(t, balanced.Ranges(), balanced.B())
	assert.Len(t, balanced.store.Collections(), balanced.B()+1)

	fixed, err := Open(ctx, "c", mem, WithSignatureLength(16), WithParams(4, 4))
	require.NoError(t, err)
	defer fixed.Close()
	assert.Equal(t, 4, fixed.B())
	assert.Equal(t, 4, fixed.R())
}

func TestOpen_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	mem := WithBackend(Memory())
	for name, opts := range map[string][]Option{
		"threshold":      {WithThreshold(1.5)},
		"short":          {WithSignatureLength(1)},
		"weights":        {WithWeights(params.Weights{FalsePositive: 0.9, FalseNegative: 0.9})},
		"params too big": {WithSignatureLength(16), WithParams(5, 4)},
	} {
		_, err := Open(ctx, "x", append([]Option{mem}, opts...)...)
		assert.ErrorIs(t, err, params.ErrInvalidParams, name)
	}

	_, err := Open(ctx, "", mem)
	assert.Error(t, err)
}
