// Package band reduces one band of a MinHash signature to a fixed-width
// digest used as the bucket key of that band's posting collection.
package band
