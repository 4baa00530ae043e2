// Package middleware adapts goSession.Engine to net/http: it binds the
// session cookie to the request, gates routes by session and role, guards
// admin surfaces and terminates failed sessions.
//
// # Handlers
//
//   - [Resolve]: reads the session cookie and resolves the session once per request.
//   - [Gate]: route-level redirects driven by a [RouteTable].
//   - [RequireAdmin]: re-checks the admin role at the surface itself.
//   - [WatchSessionErrors] and [RedirectOnRevoked]: forced sign-out.
//
// A typical chain is Resolve → WatchSessionErrors → Gate → handler, with
// RequireAdmin wrapped around each admin handler.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Session state,
// refresh and sign-out decisions stay in the Engine.
//
// # What this package must NOT do
//
//   - Decode access credentials (delegates to Engine).
//   - Access the credential store directly.
//   - Explain a denial: every denial is a plain redirect.
package middleware
