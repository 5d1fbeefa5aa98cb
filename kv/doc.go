// Package kv defines the narrow transactional key-value contract the index
// is written against: an environment of named collections, snapshot read
// transactions and serialized, all-or-nothing write transactions.
//
// Implementations live in sub-packages:
//   - sqlitekv: durable storage, one SQLite table per collection
//   - memkv: volatile storage on copy-on-write B-trees
package kv
