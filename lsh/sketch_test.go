package lsh

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// minhash builds a signature of length h for the token set: position i holds
// the minimum over tokens of a hash seeded with i.
func minhash(h int, tokens ...string) []uint64 {
	sig := make([]uint64, h)
	for i := range sig {
		sig[i] = math.MaxUint64
		prefix := strconv.Itoa(i) + ":"
		for _, tok := range tokens {
			if v := xxhash.Sum64String(prefix + tok); v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}
