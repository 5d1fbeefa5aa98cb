// Package codec is the durable encoding of index keys, posting lists and
// primary records. It uses MessagePack through github.com/tinylib/msgp:
// a posting list is the MessagePack array of its keys and a primary record is
// the MessagePack array of its band digests as bin values.
//
// Key encoding is canonical: equal keys always produce identical bytes, so
// keys can be compared by their encoding. Changing the encoding is a
// breaking change for every persisted index.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/tinylib/msgp/msgp"
)

var (
	// ErrUnsupportedKeyType is returned when a key holds a value outside the
	// supported shapes.
	ErrUnsupportedKeyType = errors.New("codec: unsupported key type")

	// ErrCorruptRecord is returned when stored bytes cannot be decoded.
	ErrCorruptRecord = errors.New("codec: corrupt record")
)

// maxDepth bounds tuple nesting on both encode and decode.
const maxDepth = 32

// Tuple is a composite key. Elements must themselves be supported key values.
type Tuple []any

// EncodeKey returns the canonical encoding of key. Supported shapes are
// string, every integer kind and Tuple (or []any) of supported values.
func EncodeKey(key any) ([]byte, error) {
	return appendKey(nil, key, 0)
}

func appendKey(b []byte, key any, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: tuple nested deeper than %d", ErrUnsupportedKeyType, maxDepth)
	}
	switch v := key.(type) {
	case string:
		return msgp.AppendString(b, v), nil
	case int:
		return appendInt(b, int64(v)), nil
	case int8:
		return appendInt(b, int64(v)), nil
	case int16:
		return appendInt(b, int64(v)), nil
	case int32:
		return appendInt(b, int64(v)), nil
	case int64:
		return appendInt(b, v), nil
	case uint:
		return msgp.AppendUint64(b, uint64(v)), nil
	case uint8:
		return msgp.AppendUint64(b, uint64(v)), nil
	case uint16:
		return msgp.AppendUint64(b, uint64(v)), nil
	case uint32:
		return msgp.AppendUint64(b, uint64(v)), nil
	case uint64:
		return msgp.AppendUint64(b, v), nil
	case Tuple:
		return appendTuple(b, v, depth)
	case []any:
		return appendTuple(b, v, depth)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

// appendInt writes non-negative values in unsigned form so that an integer
// has one encoding regardless of its Go type.
func appendInt(b []byte, v int64) []byte {
	if v >= 0 {
		return msgp.AppendUint64(b, uint64(v))
	}
	return msgp.AppendInt64(b, v)
}

func appendTuple(b []byte, t []any, depth int) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, uint32(len(t)))
	var err error
	for _, e := range t {
		if b, err = appendKey(b, e, depth+1); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// DecodeKey is the inverse of EncodeKey. Integers decode as int64, or as
// uint64 when they exceed math.MaxInt64; tuples decode as Tuple.
func DecodeKey(b []byte) (any, error) {
	key, rest, err := readKey(b, 0)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after key", ErrCorruptRecord, len(rest))
	}
	return key, nil
}

func readKey(b []byte, depth int) (any, []byte, error) {
	if depth > maxDepth {
		return nil, nil, fmt.Errorf("%w: tuple nested deeper than %d", ErrCorruptRecord, maxDepth)
	}
	if len(b) == 0 {
		return nil, nil, fmt.Errorf("%w: empty key", ErrCorruptRecord)
	}
	switch msgp.NextType(b) {
	case msgp.StrType:
		s, rest, err := msgp.ReadStringBytes(b)
		if err != nil {
			return nil, nil, corrupt(err)
		}
		return s, rest, nil
	case msgp.IntType:
		i, rest, err := msgp.ReadInt64Bytes(b)
		if err != nil {
			return nil, nil, corrupt(err)
		}
		return i, rest, nil
	case msgp.UintType:
		u, rest, err := msgp.ReadUint64Bytes(b)
		if err != nil {
			return nil, nil, corrupt(err)
		}
		if u <= math.MaxInt64 {
			return int64(u), rest, nil
		}
		return u, rest, nil
	case msgp.ArrayType:
		n, rest, err := msgp.ReadArrayHeaderBytes(b)
		if err != nil {
			return nil, nil, corrupt(err)
		}
		if int(n) > len(rest) {
			return nil, nil, fmt.Errorf("%w: tuple of %d elements in %d bytes", ErrCorruptRecord, n, len(rest))
		}
		t := make(Tuple, n)
		for i := range t {
			if t[i], rest, err = readKey(rest, depth+1); err != nil {
				return nil, nil, err
			}
		}
		return t, rest, nil
	default:
		return nil, nil, fmt.Errorf("%w: unexpected %s in key", ErrCorruptRecord, msgp.NextType(b))
	}
}

// EncodeKeys encodes a posting list from already-encoded keys.
func EncodeKeys(keys [][]byte) []byte {
	size := 5
	for _, k := range keys {
		size += len(k)
	}
	b := msgp.AppendArrayHeader(make([]byte, 0, size), uint32(len(keys)))
	for _, k := range keys {
		b = append(b, k...)
	}
	return b
}

// DecodeKeys splits a posting list into the encoded keys it holds, in
// stored order.
func DecodeKeys(b []byte) ([][]byte, error) {
	n, rest, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, corrupt(err)
	}
	if int(n) > len(rest) {
		return nil, fmt.Errorf("%w: posting of %d keys in %d bytes", ErrCorruptRecord, n, len(rest))
	}
	keys := make([][]byte, n)
	for i := range keys {
		next, err := msgp.Skip(rest)
		if err != nil {
			return nil, corrupt(err)
		}
		keys[i] = bytes.Clone(rest[:len(rest)-len(next)])
		rest = next
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after posting", ErrCorruptRecord, len(rest))
	}
	return keys, nil
}

// EncodeDigests encodes a primary record.
func EncodeDigests(digests [][]byte) []byte {
	b := msgp.AppendArrayHeader(nil, uint32(len(digests)))
	for _, d := range digests {
		b = msgp.AppendBytes(b, d)
	}
	return b
}

// DecodeDigests is the inverse of EncodeDigests.
func DecodeDigests(b []byte) ([][]byte, error) {
	n, rest, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, corrupt(err)
	}
	if int(n) > len(rest) {
		return nil, fmt.Errorf("%w: record of %d digests in %d bytes", ErrCorruptRecord, n, len(rest))
	}
	digests := make([][]byte, n)
	for i := range digests {
		// Older msgpack writers store byte strings as raw str.
		if msgp.NextType(rest) == msgp.StrType {
			digests[i], rest, err = msgp.ReadStringAsBytes(rest, nil)
		} else {
			digests[i], rest, err = msgp.ReadBytesBytes(rest, nil)
		}
		if err != nil {
			return nil, corrupt(err)
		}
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after record", ErrCorruptRecord, len(rest))
	}
	return digests, nil
}

func corrupt(err error) error {
	return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
}
