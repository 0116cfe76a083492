// Package tiered combines several cache tiers, fastest first, into one
// cache.Cache.
//
// Get probes the tiers in order, one at a time, and stops at the first hit.
// Tiers that missed before the hit are then filled with the value in the
// background (fire-and-forget Set). Set, Remove and Clear go to every tier
// concurrently; their callback fires once, after every tier has finished.
//
// The coordinator has no eviction policy of its own and never reports tier
// failures: a tier that cannot serve a key simply misses.
package tiered
