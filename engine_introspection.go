package goSession

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// SessionInfo is the safe introspection view of a stored session. It carries
// no credential material.
type SessionInfo struct {
	SessionID    string
	SubjectID    string
	Role         Role
	Error        SessionError
	AccessExpiry time.Time
	CreatedAt    time.Time
	RefreshedAt  time.Time
}

// HealthStatus is an on-demand credential store health result.
type HealthStatus struct {
	StoreAvailable bool
	StoreLatency   time.Duration
}

type pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// GetSessionInfo returns the stored state of sessionID without rotating it.
func (e *Engine) GetSessionInfo(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}

	rec, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	return &SessionInfo{
		SessionID:    rec.SessionID,
		SubjectID:    rec.SubjectID,
		Role:         jwt.ParseRole(rec.Role),
		Error:        SessionError(rec.Error),
		AccessExpiry: rec.Expiry(),
		CreatedAt:    time.UnixMilli(rec.CreatedAt),
		RefreshedAt:  time.UnixMilli(rec.RefreshedAt),
	}, nil
}

// Health pings the credential store. Process-local stores are always
// available.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.store == nil {
		return HealthStatus{}
	}

	p, ok := e.store.(pinger)
	if !ok {
		return HealthStatus{StoreAvailable: true}
	}

	latency, err := p.Ping(ctx)
	return HealthStatus{
		StoreAvailable: err == nil,
		StoreLatency:   latency,
	}
}

// GetSignInAttempts returns the failed sign-in count recorded for email in
// the current throttle window.
func (e *Engine) GetSignInAttempts(ctx context.Context, email string) (int, error) {
	if e == nil || e.limiter == nil {
		return 0, ErrEngineNotReady
	}
	if email == "" {
		return 0, nil
	}

	return e.limiter.Attempts(ctx, email)
}
