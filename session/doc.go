// Package session holds the credential record of each signed-in user agent.
//
// # Stores
//
//   - [MemoryStore]: process-local map of deep copies, for single-instance edges and tests.
//   - [RedisStore]: shared Redis keyspace; records are binary-encoded and sealed with
//     XChaCha20-Poly1305 so bearer and refresh credentials never rest in plaintext.
//
// Every store replaces whole records atomically: a reader observes either the previous
// record or the next one, never a mix of both.
//
// # Architecture boundaries
//
// This package owns the [Record] model, its binary encoding and persistence. It does NOT
// decode tokens, talk to the remote API, or decide when a credential must be rotated;
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import goSession, jwt, refresh or backend (no upward imports).
//   - Mutate a record handed to or returned from a store (stores keep their own copies).
package session
