package goSession

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/jwt"
)

// Role is the advisory role decoded from the access credential.
type Role = jwt.Role

const (
	RoleUser  = jwt.RoleUser
	RoleAdmin = jwt.RoleAdmin
)

// State is the lifecycle position of a session.
//
// Views returned by the Engine are always StateAnonymous,
// StateAuthenticated, StateRefreshed or StateFailed. StateExpiring and
// StateRefreshing are only reported to transition observers.
type State uint8

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateExpiring
	StateRefreshing
	StateRefreshed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateExpiring:
		return "expiring"
	case StateRefreshing:
		return "refreshing"
	case StateRefreshed:
		return "refreshed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionError tags a terminal session.
type SessionError string

const (
	SessionErrorNone           SessionError = ""
	SessionErrorRefreshFailed  SessionError = "refresh_failed"
	SessionErrorExchangeFailed SessionError = "exchange_failed"
)

// Session is the read-only view of one user agent's session. The refresh
// credential is never part of it.
type Session struct {
	ID           string
	SubjectID    string
	Role         Role
	AccessToken  string
	AccessExpiry time.Time
	Error        SessionError
	State        State
}

// Authenticated reports whether the view carries a usable access credential.
func (s *Session) Authenticated() bool {
	if s == nil || s.Error != SessionErrorNone || s.AccessToken == "" {
		return false
	}
	return s.State == StateAuthenticated || s.State == StateRefreshed
}

// Terminal reports whether the session carries a failure tag.
func (s *Session) Terminal() bool {
	return s != nil && s.Error != SessionErrorNone
}

// IsAdmin reports whether the view is authenticated with the admin role.
func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}

// Backend is the remote API the Engine delegates credential issuance to.
// [backend.Client] implements it.
type Backend interface {
	Login(ctx context.Context, email, password string) (backend.TokenPair, error)
	Register(ctx context.Context, email, password string) (backend.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (backend.TokenPair, error)
	ExchangeFederated(ctx context.Context, idToken string) (backend.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Do(ctx context.Context, req *http.Request, accessToken string) (*http.Response, error)
}

var _ Backend = (*backend.Client)(nil)
