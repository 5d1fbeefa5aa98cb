package band

import "encoding/binary"

// EncodeValues appends the big-endian bytes of values to dst. This is the
// byte form every hasher digests; it is also the Raw digest itself.
func EncodeValues(dst []byte, values []uint64) []byte {
	for _, v := range values {
		dst = binary.BigEndian.AppendUint64(dst, v)
	}
	return dst
}
