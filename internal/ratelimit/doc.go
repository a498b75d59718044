// Package ratelimit provides per-IP rate limiting with background eviction
// of stale entries.
//
// It sits in front of the store publish endpoint so a single client cannot
// rewrite the site data file in a tight loop. The limiter is in-memory and
// per-instance; it does not protect against distributed abuse across many
// addresses. The visitor map is bounded, and new addresses are turned away
// once it is full.
package ratelimit
