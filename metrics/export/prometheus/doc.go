// Package prometheus renders goSession engine metrics in Prometheus text
// exposition format.
//
// Counter names are prefixed gosession_*_total; the single histogram is
// gosession_resolve_latency_seconds. An empty scrape answers 204.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
