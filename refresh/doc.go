// Package refresh rotates credential pairs with at most one exchange in
// flight per session.
//
// # Single flight
//
// Concurrent [Refresher.Refresh] calls for the same key share one call to
// the [Exchanger]. The slot is released as soon as the exchange settles,
// whether it succeeded or failed.
//
// # Late arrivals
//
// A caller may read a record just before a concurrent exchange rotates it
// and join only after that exchange settled. Its refresh credential has
// already been consumed remotely, so the settled outcome for that exact
// credential is kept for a short reuse window and handed back instead of
// issuing a second exchange.
//
// Both the flight and the memo are per process. Instances sharing a Redis
// store may each exchange once for the same session.
//
// # What this package must NOT do
//
//   - Retry a failed exchange.
//   - Cancel an exchange because the triggering request ended.
//   - Access the session store.
package refresh
