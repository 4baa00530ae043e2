// Package rate provides the Redis-backed sign-in throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - ss:si:  failed sign-ins per normalized email
//   - ss:sii: failed sign-ins per client IP
//
// # What this package must NOT do
//
//   - Decide what counts as a failure (the Engine does).
//   - Be imported outside the goSession module.
package rate
