package goSession

import "errors"

var (
	// ErrInvalidCredentials is returned when the remote API rejects a sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSignInInput is returned when email or password fail local validation.
	ErrInvalidSignInInput = errors.New("invalid sign-in input")
	// ErrSignInRateLimited is returned when the sign-in throttle refuses an attempt.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	// ErrFederatedExchangeFailed is returned when a federated identity token
	// could not be exchanged for a credential pair.
	ErrFederatedExchangeFailed = errors.New("federated exchange failed")
	// ErrAccountExists is returned when registration hits an existing account.
	ErrAccountExists = errors.New("account already exists")
	// ErrRegistrationRejected is returned for any other registration refusal.
	ErrRegistrationRejected = errors.New("registration rejected")
	// ErrBackendUnavailable is returned when the remote API cannot be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrSessionCreationFailed is returned when a new record cannot be stored.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrUnauthenticated is returned when an operation needs a session and
	// none is bound.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionTerminal is returned when the bound session carries a failure
	// tag. Its credentials are never used again.
	ErrSessionTerminal = errors.New("session terminal")
	// ErrAccessRevoked is returned when a downstream call was answered with
	// 403; the session has been signed out.
	ErrAccessRevoked = errors.New("access revoked")
	// ErrPermissionDenied is returned when the session lacks the admin role.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEngineNotReady is returned by methods called on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
