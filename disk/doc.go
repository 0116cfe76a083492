// Package disk implements a cache tier that keeps one file per key under a
// root directory.
//
// Reads run concurrently. Writes (Set, Remove, Clear) wait for every read
// already submitted, run one at a time with nothing else in flight, and are
// applied in submission order; reads submitted after a write observe it.
// Completion callbacks run after the operation has left the tier's queue, so
// they may issue further operations on the same tier and wait for them.
//
// Values go through a codec.Codec. A file that cannot be read or decoded is
// a miss; medium failures are logged and counted, never returned.
//
// Keys map to file names with url.PathEscape, so every key lands directly in
// the root directory and "/" or ".." cannot escape it. The empty key has no
// file name and is rejected (a miss for Get, a no-op for mutations).
package disk
