package lsh

import (
	"errors"
	"fmt"

	"github.com/viant/sqlite-lsh/codec"
)

var (
	// ErrSignatureLengthMismatch matches every *SignatureLengthError.
	ErrSignatureLengthMismatch = errors.New("lsh: signature length mismatch")

	// ErrDuplicateKey is returned by Insert for a key already indexed.
	ErrDuplicateKey = errors.New("lsh: key already exists")

	// ErrUnknownKey is returned by Remove for a key not indexed.
	ErrUnknownKey = errors.New("lsh: key does not exist")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("lsh: index closed")

	// ErrNotImplemented is returned by operations the persistent index does
	// not support.
	ErrNotImplemented = errors.New("lsh: not implemented")

	// ErrLayoutMismatch is returned by Open when stored records were written
	// with a different band layout or hasher.
	ErrLayoutMismatch = errors.New("lsh: stored layout does not match options")

	// ErrUnsupportedKeyType is returned for keys the codec cannot encode.
	ErrUnsupportedKeyType = codec.ErrUnsupportedKeyType

	// ErrCorruptRecord is returned when stored records cannot be decoded or
	// do not match the index layout.
	ErrCorruptRecord = codec.ErrCorruptRecord
)

// SignatureLengthError reports a signature whose length differs from the
// configured signature length.
type SignatureLengthError struct {
	Expected int
	Actual   int
}

func (e *SignatureLengthError) Error() string {
	return fmt.Sprintf("lsh: expecting signature with length %d, got %d", e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrSignatureLengthMismatch) hold.
func (e *SignatureLengthError) Is(target error) bool {
	return target == ErrSignatureLengthMismatch
}
