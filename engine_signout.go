package goSession

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSession/session"
)

// SignOut terminates the session bound to ctx and reports whether this call
// removed it. Concurrent calls for one session report true exactly once.
//
// A healthy session's refresh credential is revoked on the remote API on a
// best-effort basis; the local record is removed regardless. Signing out a
// failed session counts as a forced sign-out and revokes nothing.
func (e *Engine) SignOut(ctx context.Context) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}

	id := SessionIDFromContext(ctx)
	if id == "" {
		return false, nil
	}
	return e.endSession(ctx, id, "")
}

// forceSignOut removes the record after the remote API refused the access
// credential. Nothing is revoked.
func (e *Engine) forceSignOut(ctx context.Context, sessionID, reason string) (bool, error) {
	return e.endSession(ctx, sessionID, reason)
}

// endSession deletes the record bound to sessionID. An empty reason marks an
// explicit sign-out.
func (e *Engine) endSession(ctx context.Context, sessionID, reason string) (bool, error) {
	rec, getErr := e.store.Get(ctx, sessionID)
	if getErr != nil && !errors.Is(getErr, session.ErrNotFound) {
		e.logger.WarnContext(ctx, "loading session for sign-out",
			slog.String("session_id", sessionID),
			slog.Any("error", getErr),
		)
	}

	removed, err := e.store.Delete(ctx, sessionID)
	e.refresher.Forget(sessionID)
	if err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.ErrorContext(ctx, "removing session",
			slog.String("session_id", sessionID),
			slog.Any("error", err),
		)
		return false, err
	}
	if !removed {
		return false, nil
	}

	var subjectID string
	if getErr == nil {
		subjectID = rec.SubjectID
	}

	switch {
	case reason != "":
		e.metricInc(MetricForcedSignOut)
		e.emitAudit(ctx, auditEventForcedSignOut, true, subjectID, sessionID, nil, func() map[string]string {
			return map[string]string{"reason": reason}
		})
	case getErr == nil && rec.Terminal():
		e.metricInc(MetricForcedSignOut)
		e.emitAudit(ctx, auditEventForcedSignOut, true, subjectID, sessionID, nil, func() map[string]string {
			return map[string]string{"reason": rec.Error}
		})
	default:
		if getErr == nil {
			e.revoke(ctx, rec.RefreshToken)
		}
		e.metricInc(MetricSignOut)
		e.emitAudit(ctx, auditEventSignOut, true, subjectID, sessionID, nil, nil)
	}

	e.logger.InfoContext(ctx, "session ended",
		slog.String("session_id", sessionID),
		slog.String("subject_id", subjectID),
		slog.String("reason", reason),
	)
	return true, nil
}

// revoke asks the remote API to invalidate refreshToken. Failures are logged
// and otherwise ignored; the caller's cancellation does not abort it.
func (e *Engine) revoke(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := e.backend.Logout(context.WithoutCancel(ctx), refreshToken); err != nil {
		e.logger.WarnContext(ctx, "revoking refresh credential",
			slog.Any("refresh_token", secret(refreshToken)),
			slog.Any("error", err),
		)
	}
}
