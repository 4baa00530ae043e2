// Package goSession manages storefront sessions whose credentials are
// issued by a remote catalog and order API.
//
// An [Engine] signs user agents in (password, federated identity token or
// registration), keeps the short-lived access credential and the long-lived
// refresh credential of each session in a [session.Store], rotates them
// lazily with one exchange per session in flight, and authorizes downstream
// calls with the current bearer credential.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config]
// and the [Session] view. The HTTP edge (route gating, admin guard, session
// error watcher) lives in the middleware package and talks to the Engine
// only through its exported methods.
//
// # What this package must NOT do
//
//   - Expose refresh credentials in a [Session] view or in logs.
//   - Verify access credential signatures; role claims are advisory and the
//     remote API enforces authorization.
//   - Retry a failed refresh exchange.
package goSession
