package band

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hasher reduces signature[r.Start:r.End] to a digest. Implementations are
// pure: equal band values always yield equal digests. A range outside the
// signature is a programming error and panics.
type Hasher interface {
	Digest(signature []uint64, r Range) []byte

	// Size returns the digest width for bands of the given number of rows.
	Size(rows int) int

	// Name is the stable identifier used in configuration.
	Name() string
}

// XXHash digests a band to the 8-byte big-endian xxhash64 of its values.
type XXHash struct{}

// Digest implements Hasher.
func (XXHash) Digest(signature []uint64, r Range) []byte {
	buf := EncodeValues(make([]byte, 0, 8*r.Len()), signature[r.Start:r.End])
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), xxhash.Sum64(buf))
}

// Size implements Hasher.
func (XXHash) Size(int) int { return 8 }

// Name implements Hasher.
func (XXHash) Name() string { return "xxhash" }

// Raw uses the big-endian bytes of the band values as the digest. Digests are
// collision free but 8 bytes per row wide.
type Raw struct{}

// Digest implements Hasher.
func (Raw) Digest(signature []uint64, r Range) []byte {
	return EncodeValues(make([]byte, 0, 8*r.Len()), signature[r.Start:r.End])
}

// Size implements Hasher.
func (Raw) Size(rows int) int { return 8 * rows }

// Name implements Hasher.
func (Raw) Name() string { return "raw" }

// Default is the hasher used when none is configured.
var Default Hasher = XXHash{}

// ByName returns a built-in hasher by its stable name.
func ByName(name string) (Hasher, bool) {
	switch name {
	case "xxhash", "":
		return XXHash{}, true
	case "raw":
		return Raw{}, true
	default:
		return nil, false
	}
}
