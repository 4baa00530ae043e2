// Package jwt decodes the identity claims carried by storefront access tokens.
//
// # Trust model
//
// Decoding is structural only. Signatures are never verified here: the remote
// API verifies every bearer token it receives, so the claims read by this
// package are advisory and feed routing and UI decisions, not authorization.
//
// # What this package must NOT do
//
//   - Verify, sign, or issue tokens.
//   - Return errors for malformed tokens (callers get safe defaults instead).
//   - Import goSession or any sibling package.
package jwt
