package lsh

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/viant/sqlite-lsh/band"
	"github.com/viant/sqlite-lsh/codec"
	"github.com/viant/sqlite-lsh/kv"
	"github.com/viant/sqlite-lsh/params"
)

// PrimaryCollection maps encoded keys to their band digests.
const PrimaryCollection = "primary"

// BandCollection returns the name of the posting collection of band i.
func BandCollection(i int) string { return fmt.Sprintf("band_%d", i) }

// Index is a MinHash LSH index persisted in a transactional key-value store.
// It is safe for concurrent use. Close must be called on every exit path.
type Index struct {
	location  string
	h         int
	threshold float64
	weights   params.Weights
	params    params.Params
	hasher    band.Hasher
	bands     []string
	store     kv.Store
	logger    *slog.Logger
	metrics   MetricsCollector

	mu     sync.RWMutex // held shared by operations, exclusively by Close
	closed bool
}

// Open computes the band layout once and opens or creates the index's b+1
// collections at location.
//
// The layout (b, r and hasher) is not stored. An existing index must be
// reopened with the options it was built with. Open samples one stored
// record and fails with ErrLayoutMismatch when its digest count or digest
// size disagrees with the computed layout; a change of r that keeps both
// unchanged (possible with the xxhash hasher) cannot be detected.
func Open(ctx context.Context, location string, opts ...Option) (*Index, error) {
	if location == "" {
		return nil, fmt.Errorf("lsh: empty location")
	}
	o := newOptions(opts)

	p, err := o.parameterizer.Parameterize(o.threshold, o.signatureLength, o.weights)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(o.signatureLength); err != nil {
		return nil, err
	}

	bands := make([]string, p.B)
	for i := range bands {
		bands[i] = BandCollection(i)
	}
	store, err := o.backend(ctx, location, append([]string{PrimaryCollection}, bands...))
	if err != nil {
		return nil, fmt.Errorf("lsh: open %s: %w", location, err)
	}
	if err := checkLayout(ctx, store, p, o.hasher); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	x := &Index{
		location:  location,
		h:         o.signatureLength,
		threshold: o.threshold,
		weights:   o.weights,
		params:    p,
		hasher:    o.hasher,
		bands:     bands,
		store:     store,
		logger:    o.logger.With("component", "lsh", "location", location),
		metrics:   o.metrics,
	}
	x.logger.Info("index opened", "b", p.B, "r", p.R, "h", x.h, "threshold", x.threshold, "hasher", x.hasher.Name())
	return x, nil
}

var errStop = errors.New("stop")

// checkLayout compares the first primary record, if any, with the layout.
func checkLayout(ctx context.Context, store kv.Store, p params.Params, h band.Hasher) error {
	return store.View(ctx, func(r kv.Reader) error {
		err := r.ForEach(PrimaryCollection, func(_, rec []byte) error {
			digests, err := codec.DecodeDigests(rec)
			if err != nil {
				return err
			}
			if len(digests) != p.B {
				return fmt.Errorf("%w: stored records have %d bands, options give %d", ErrLayoutMismatch, len(digests), p.B)
			}
			for _, d := range digests {
				if len(d) != h.Size(p.R) {
					return fmt.Errorf("%w: stored digests are %d bytes, %s hasher with r=%d gives %d",
						ErrLayoutMismatch, len(d), h.Name(), p.R, h.Size(p.R))
				}
			}
			return errStop
		})
		if errors.Is(err, errStop) {
			return nil
		}
		return err
	})
}

// Close releases the store. The index must not be used afterwards; further
// calls return ErrClosed. Close is idempotent.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	err := x.store.Close()
	x.logger.Info("index closed", "error", err)
	return err
}

// Location returns the location the index was opened at.
func (x *Index) Location() string { return x.location }

// B returns the number of bands.
func (x *Index) B() int { return x.params.B }

// R returns the number of rows per band.
func (x *Index) R() int { return x.params.R }

// Ranges returns a copy of the band ranges.
func (x *Index) Ranges() []band.Range { return slices.Clone(x.params.Ranges) }

// SignatureLength returns h.
func (x *Index) SignatureLength() int { return x.h }

// Threshold returns the configured Jaccard threshold.
func (x *Index) Threshold() float64 { return x.threshold }

// Weights returns the configured error weighting.
func (x *Index) Weights() params.Weights { return x.weights }

func (x *Index) acquire() error {
	x.mu.RLock()
	if x.closed {
		x.mu.RUnlock()
		return ErrClosed
	}
	return nil
}

func (x *Index) release() { x.mu.RUnlock() }

func (x *Index) checkSignature(sig []uint64) error {
	if len(sig) != x.h {
		return &SignatureLengthError{Expected: x.h, Actual: len(sig)}
	}
	return nil
}

func (x *Index) digests(sig []uint64) [][]byte {
	out := make([][]byte, len(x.params.Ranges))
	for i, r := range x.params.Ranges {
		out[i] = x.hasher.Digest(sig, r)
	}
	return out
}

type prepared struct {
	key     any
	encoded []byte
	digests [][]byte
}

func (x *Index) prepare(entries []Entry) ([]prepared, error) {
	out := make([]prepared, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if err := x.checkSignature(e.Signature); err != nil {
			return nil, err
		}
		encoded, err := codec.EncodeKey(e.Key)
		if err != nil {
			return nil, fmt.Errorf("lsh: key %v: %w", e.Key, err)
		}
		if _, ok := seen[string(encoded)]; ok {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, e.Key)
		}
		seen[string(encoded)] = struct{}{}
		out[i] = prepared{key: e.Key, encoded: encoded, digests: x.digests(e.Signature)}
	}
	return out, nil
}

// Insert indexes key under signature. It fails with ErrDuplicateKey if key is
// already present and with ErrSignatureLengthMismatch if len(signature) is
// not the configured length; in both cases nothing is written.
func (x *Index) Insert(ctx context.Context, key any, signature []uint64) (err error) {
	start := time.Now()
	defer func() {
		x.metrics.RecordInsert(1, time.Since(start), err)
		x.logResult(ctx, "insert", err, "key", key)
	}()
	if err = x.acquire(); err != nil {
		return err
	}
	defer x.release()

	items, err := x.prepare([]Entry{{Key: key, Signature: signature}})
	if err != nil {
		return err
	}
	return x.store.Update(ctx, func(tx kv.Writer) error {
		return x.insertTx(tx, items)
	})
}

// InsertBatch indexes all entries in a single transaction: either every entry
// is inserted or none is. A key repeated within entries or already present
// fails the whole batch with ErrDuplicateKey.
func (x *Index) InsertBatch(ctx context.Context, entries []Entry) (err error) {
	start := time.Now()
	defer func() {
		x.metrics.RecordInsert(len(entries), time.Since(start), err)
		x.logResult(ctx, "insert batch", err, "count", len(entries))
	}()
	if err = x.acquire(); err != nil {
		return err
	}
	defer x.release()

	if len(entries) == 0 {
		return nil
	}
	items, err := x.prepare(entries)
	if err != nil {
		return err
	}
	return x.store.Update(ctx, func(tx kv.Writer) error {
		return x.insertTx(tx, items)
	})
}

// insertTx writes primary records and appends every key to its postings.
// Postings touched more than once in the transaction are read and written
// once.
func (x *Index) insertTx(tx kv.Writer, items []prepared) error {
	postings := make([]map[string][][]byte, len(x.bands))
	for i := range postings {
		postings[i] = make(map[string][][]byte)
	}
	for _, it := range items {
		_, err := tx.Get(PrimaryCollection, it.encoded)
		if err == nil {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, it.key)
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return err
		}
		if err := tx.Put(PrimaryCollection, it.encoded, codec.EncodeDigests(it.digests)); err != nil {
			return err
		}
		for i, d := range it.digests {
			keys, ok := postings[i][string(d)]
			if !ok {
				if keys, err = x.readPosting(tx, i, d); err != nil {
					return err
				}
			}
			postings[i][string(d)] = append(keys, it.encoded)
		}
	}
	for i, byDigest := range postings {
		for d, keys := range byDigest {
			if err := tx.Put(x.bands[i], []byte(d), codec.EncodeKeys(keys)); err != nil {
				return err
			}
		}
	}
	return nil
}

// readPosting returns the encoded keys stored under digest in band i, or nil
// when the bucket does not exist.
func (x *Index) readPosting(r kv.Reader, i int, digest []byte) ([][]byte, error) {
	raw, err := r.Get(x.bands[i], digest)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	keys, err := codec.DecodeKeys(raw)
	if err != nil {
		return nil, fmt.Errorf("lsh: %s posting %x: %w", x.bands[i], digest, err)
	}
	return keys, nil
}

// Query returns the keys sharing at least one band digest with signature,
// deduplicated and ordered by first appearance in band order. The result is
// a candidate set; similarity is not verified.
func (x *Index) Query(ctx context.Context, signature []uint64) (candidates []any, err error) {
	start := time.Now()
	defer func() {
		x.metrics.RecordQuery(len(candidates), time.Since(start), err)
		x.logResult(ctx, "query", err, "candidates", len(candidates))
	}()
	if err = x.acquire(); err != nil {
		return nil, err
	}
	defer x.release()

	if err = x.checkSignature(signature); err != nil {
		return nil, err
	}
	digests := x.digests(signature)

	var encoded [][]byte
	err = x.store.View(ctx, func(r kv.Reader) error {
		seen := make(map[string]struct{})
		for i, d := range digests {
			keys, err := x.readPosting(r, i, d)
			if err != nil {
				return err
			}
			for _, k := range keys {
				if _, ok := seen[string(k)]; ok {
					continue
				}
				seen[string(k)] = struct{}{}
				encoded = append(encoded, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]any, len(encoded))
	for i, k := range encoded {
		if out[i], err = codec.DecodeKey(k); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// QueryBands would query only the first bands bands of signature. Partial
// queries change the LSH guarantee and are not supported.
func (x *Index) QueryBands(ctx context.Context, signature []uint64, bands int) ([]any, error) {
	if err := x.acquire(); err != nil {
		return nil, err
	}
	defer x.release()
	return nil, fmt.Errorf("%w: query over %d bands", ErrNotImplemented, bands)
}

// Remove deletes key, its primary record and its entry in every band
// posting, deleting postings that become empty. It fails with ErrUnknownKey
// if key is not indexed.
//
// A posting that does not hold key is skipped: it is logged and reported via
// MetricsCollector.RecordAnomaly, and the removal still completes.
func (x *Index) Remove(ctx context.Context, key any) (err error) {
	start := time.Now()
	defer func() {
		x.metrics.RecordRemove(time.Since(start), err)
		x.logResult(ctx, "remove", err, "key", key)
	}()
	if err = x.acquire(); err != nil {
		return err
	}
	defer x.release()

	encoded, err := codec.EncodeKey(key)
	if err != nil {
		return fmt.Errorf("lsh: key %v: %w", key, err)
	}

	var anomalies []int
	err = x.store.Update(ctx, func(tx kv.Writer) error {
		anomalies = anomalies[:0]
		rec, err := tx.Get(PrimaryCollection, encoded)
		if errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrUnknownKey, key)
		}
		if err != nil {
			return err
		}
		digests, err := codec.DecodeDigests(rec)
		if err != nil {
			return fmt.Errorf("lsh: primary record of %v: %w", key, err)
		}
		if len(digests) != len(x.bands) {
			return fmt.Errorf("%w: primary record of %v has %d digests, index has %d bands",
				ErrCorruptRecord, key, len(digests), len(x.bands))
		}
		for i, d := range digests {
			keys, err := x.readPosting(tx, i, d)
			if err != nil {
				return err
			}
			at := slices.IndexFunc(keys, func(k []byte) bool { return bytes.Equal(k, encoded) })
			if at < 0 {
				anomalies = append(anomalies, i)
				continue
			}
			keys = slices.Delete(keys, at, at+1)
			if len(keys) == 0 {
				err = tx.Delete(x.bands[i], d)
			} else {
				err = tx.Put(x.bands[i], d, codec.EncodeKeys(keys))
			}
			if err != nil {
				return err
			}
		}
		return tx.Delete(PrimaryCollection, encoded)
	})
	if err != nil {
		return err
	}
	for _, i := range anomalies {
		x.metrics.RecordAnomaly(i)
		x.logger.WarnContext(ctx, "posting did not hold removed key", "band", i, "key", key)
	}
	return nil
}

// Contains reports whether key is indexed.
func (x *Index) Contains(ctx context.Context, key any) (bool, error) {
	if err := x.acquire(); err != nil {
		return false, err
	}
	defer x.release()

	encoded, err := codec.EncodeKey(key)
	if err != nil {
		return false, fmt.Errorf("lsh: key %v: %w", key, err)
	}
	found := false
	err = x.store.View(ctx, func(r kv.Reader) error {
		_, err := r.Get(PrimaryCollection, encoded)
		if errors.Is(err, kv.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}

// IsEmpty reports whether every band collection is empty.
func (x *Index) IsEmpty(ctx context.Context) (bool, error) {
	if err := x.acquire(); err != nil {
		return false, err
	}
	defer x.release()

	empty := true
	err := x.store.View(ctx, func(r kv.Reader) error {
		for _, c := range x.bands {
			ok, err := r.Empty(c)
			if err != nil {
				return err
			}
			if !ok {
				empty = false
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return empty, nil
}

// Len returns the number of indexed keys.
func (x *Index) Len(ctx context.Context) (int, error) {
	if err := x.acquire(); err != nil {
		return 0, err
	}
	defer x.release()

	var n int
	err := x.store.View(ctx, func(r kv.Reader) error {
		var err error
		n, err = r.Count(PrimaryCollection)
		return err
	})
	return n, err
}

// Counts returns, for every band, the size of each bucket keyed by the
// hex-encoded digest.
func (x *Index) Counts(ctx context.Context) ([]map[string]int, error) {
	if err := x.acquire(); err != nil {
		return nil, err
	}
	defer x.release()

	out := make([]map[string]int, len(x.bands))
	err := x.store.View(ctx, func(r kv.Reader) error {
		for i, c := range x.bands {
			counts := make(map[string]int)
			err := r.ForEach(c, func(d, raw []byte) error {
				keys, err := codec.DecodeKeys(raw)
				if err != nil {
					return fmt.Errorf("lsh: %s posting %x: %w", c, d, err)
				}
				counts[hex.EncodeToString(d)] = len(keys)
				return nil
			})
			if err != nil {
				return err
			}
			out[i] = counts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (x *Index) logResult(ctx context.Context, op string, err error, args ...any) {
	if err != nil {
		x.logger.DebugContext(ctx, op+" failed", append(args, "error", err)...)
		return
	}
	x.logger.DebugContext(ctx, op+" completed", args...)
}
