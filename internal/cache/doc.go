// Package cache stores translations and synthesized speech. A bounded
// in-memory LRU sits in front of an optional zstd-compressed disk cache that
// survives restarts.
package cache
