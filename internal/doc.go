// Package internal groups helpers that are private to goSession.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - envconfig: environment and .env loading for the edge binaries
//   - rate: Redis-backed fixed-window counters used by the sign-in throttle
//
// Nothing here is part of the public API.
package internal
