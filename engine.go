package goSession

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
)

// Engine resolves, rotates and terminates storefront sessions.
//
// The credential store is mutated only through Engine methods.
type Engine struct {
	config    Config
	store     session.Store
	backend   Backend
	refresher *refresh.Refresher
	limiter   *rate.Limiter
	audit     *audit.Dispatcher
	metrics   *Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// RefreshExchanges reports how many refresh exchanges reached the remote
// API.
func (e *Engine) RefreshExchanges() uint64 {
	if e == nil || e.refresher == nil {
		return 0
	}
	return e.refresher.Exchanges()
}

// CookieConfig returns the session cookie settings.
func (e *Engine) CookieConfig() CookieConfig {
	if e == nil {
		return DefaultConfig().Cookie
	}
	return e.config.Cookie
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ResolveSession returns the view of the session bound to ctx, rotating the
// credential pair first when the access credential has expired.
//
// It never returns nil and never returns an error: a missing handle, a
// missing record or an unreachable store resolve to an anonymous view, and a
// failed rotation resolves to a failed view whose record is kept for the
// session-error watcher. Concurrent calls for one session share a single
// remote exchange.
func (e *Engine) ResolveSession(ctx context.Context) *Session {
	if e == nil {
		return &Session{State: StateAnonymous}
	}

	start := e.now()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricResolveLatency, e.now().Sub(start))
		}
	}()

	id := SessionIDFromContext(ctx)
	if id == "" {
		return &Session{State: StateAnonymous}
	}

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			e.metricInc(MetricStoreFailure)
			e.logger.WarnContext(ctx, "session lookup failed",
				slog.String("session_id", id),
				slog.Any("error", err),
			)
		}
		return &Session{State: StateAnonymous}
	}

	if rec.Terminal() {
		return viewOf(rec, StateFailed)
	}
	if start.Before(rec.Expiry()) {
		return viewOf(rec, StateAuthenticated)
	}

	return e.refreshSession(ctx, rec)
}

func (e *Engine) refreshSession(ctx context.Context, rec *session.Record) *Session {
	e.logger.DebugContext(ctx, "access credential expired",
		slog.String("session_id", rec.SessionID),
		slog.String("state", StateExpiring.String()),
		slog.Time("expired_at", rec.Expiry()),
	)
	e.emitAudit(ctx, auditEventAccessExpiring, true, rec.SubjectID, rec.SessionID, nil, func() map[string]string {
		return map[string]string{"state": StateRefreshing.String()}
	})

	pair, shared, err := e.refresher.Refresh(ctx, rec.SessionID, rec.RefreshToken)
	if shared {
		e.metricInc(MetricRefreshShared)
	}

	if err != nil {
		if !shared {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, rec.SubjectID, rec.SessionID, err, nil)
			e.logger.WarnContext(ctx, "refresh exchange failed",
				slog.String("session_id", rec.SessionID),
				slog.Int("status", backend.StatusCode(err)),
				slog.Any("error", err),
			)
		}

		failed := rec.Clone()
		failed.Error = string(SessionErrorRefreshFailed)
		ok, serr := e.store.Replace(ctx, failed)
		if serr != nil {
			e.metricInc(MetricStoreFailure)
			e.logger.WarnContext(ctx, "marking session failed",
				slog.String("session_id", rec.SessionID),
				slog.Any("error", serr),
			)
		} else if !ok {
			return &Session{State: StateAnonymous}
		}
		return viewOf(failed, StateFailed)
	}

	next := e.recordFromPair(rec.SessionID, pair, rec.CreatedAt)
	ok, serr := e.store.Replace(ctx, next)
	if serr != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.WarnContext(ctx, "storing rotated credentials",
			slog.String("session_id", rec.SessionID),
			slog.Any("error", serr),
		)
	} else if !ok {
		// Signed out while the exchange was in flight.
		return &Session{State: StateAnonymous}
	}

	if !shared {
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, next.SubjectID, next.SessionID, nil, nil)
		e.logger.DebugContext(ctx, "credentials rotated",
			slog.String("session_id", next.SessionID),
			slog.Any("access_token", secret(next.AccessToken)),
			slog.Time("access_expiry", next.Expiry()),
		)
	}
	return viewOf(next, StateRefreshed)
}

func (e *Engine) recordFromPair(sessionID string, pair refresh.Pair, createdAt int64) *session.Record {
	claims := jwt.Decode(pair.AccessToken)
	return &session.Record{
		SessionID:    sessionID,
		SubjectID:    claims.SubjectID,
		Role:         string(claims.Role),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExpiry: pair.IssuedAt.Add(e.config.AccessLifetime()).UnixMilli(),
		CreatedAt:    createdAt,
		RefreshedAt:  pair.IssuedAt.UnixMilli(),
	}
}

// viewOf never hands out the credential of a failed session.
func viewOf(rec *session.Record, state State) *Session {
	view := &Session{
		ID:           rec.SessionID,
		SubjectID:    rec.SubjectID,
		Role:         jwt.ParseRole(rec.Role),
		AccessToken:  rec.AccessToken,
		AccessExpiry: rec.Expiry(),
		Error:        SessionError(rec.Error),
		State:        state,
	}
	if state == StateFailed {
		view.AccessToken = ""
	}
	return view
}
