// Package lsh implements a durable MinHash LSH index.
//
// A signature is cut into b bands of r rows; each band is reduced to a
// digest and the key is appended to the posting list stored under that
// digest in the band's collection. A query unions the posting lists its own
// digests hit, returning candidate keys whose sets are likely similar above
// the configured Jaccard threshold.
//
// The index owns b+1 collections of a transactional key-value store:
//   - primary: encoded key -> the key's b digests, in band order
//   - band_0 ... band_{b-1}: digest -> encoded keys sharing it
//
// Every operation is exactly one store transaction. Insert and Remove
// read-modify-write posting lists and rely on the store serializing write
// transactions; they never span more than one transaction. Rejected
// operations leave every collection unchanged, and empty posting lists are
// deleted rather than stored.
//
// Usage:
//
//	idx, err := lsh.Open(ctx, "lsh.db", lsh.WithThreshold(0.5), lsh.WithSignatureLength(128))
//	if err != nil { ... }
//	defer idx.Close()
//	err = idx.Insert(ctx, "doc-1", signature)
//	candidates, err := idx.Query(ctx, other)
package lsh
