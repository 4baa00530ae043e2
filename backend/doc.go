// Package backend is the HTTP client for the remote storefront API's
// authentication endpoints and for authorized downstream calls.
//
// # Wire format
//
// Requests and responses are JSON with snake_case keys. Token-issuing
// endpoints answer with {access_token, refresh_token, token_type}.
//
// # Architecture boundaries
//
// The client performs exactly one request per call and classifies the
// outcome: transport failures wrap [ErrUnavailable], non-2xx answers are a
// [*StatusError] that unwraps to [ErrRejected].
//
// # What this package must NOT do
//
//   - Retry or back off.
//   - Store, cache or decode credentials.
//   - Import goSession, session or middleware.
package backend
