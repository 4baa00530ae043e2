package goSession

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Do sends req to the remote API with the current access credential,
// rotating it first when it has expired.
//
// A failed session never reaches the network: Do returns ErrSessionTerminal.
// A 403 answer forces the session out and returns ErrAccessRevoked; the
// response body is closed.
func (e *Engine) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess := e.ResolveSession(ctx)
	switch {
	case sess.Terminal():
		return nil, ErrSessionTerminal
	case !sess.Authenticated():
		return nil, ErrUnauthenticated
	}

	resp, err := e.backend.Do(ctx, req, sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()

	e.metricInc(MetricAccessRevoked)
	e.emitAudit(ctx, auditEventAccessRevoked, false, sess.SubjectID, sess.ID, ErrAccessRevoked, func() map[string]string {
		return map[string]string{"path": req.URL.Path}
	})
	if _, err := e.forceSignOut(ctx, sess.ID, "access_revoked"); err != nil {
		e.logger.WarnContext(ctx, "forced sign-out failed",
			slog.String("session_id", sess.ID),
			slog.Any("error", err),
		)
	}
	return nil, ErrAccessRevoked
}

// AuthorizeAdmin resolves the caller's session and returns it when it holds
// the admin role. Anything else, anonymous and failed sessions included, is
// ErrPermissionDenied.
//
// The role is decoded without verifying the credential's signature. It
// decides what the storefront renders; the remote API enforces access.
func (e *Engine) AuthorizeAdmin(ctx context.Context) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	sess := e.ResolveSession(ctx)
	if sess.IsAdmin() {
		return sess, nil
	}

	e.metricInc(MetricGuardDenied)
	e.emitAudit(ctx, auditEventAdminDenied, false, sess.SubjectID, sess.ID, ErrPermissionDenied, func() map[string]string {
		return map[string]string{"state": sess.State.String()}
	})
	return sess, ErrPermissionDenied
}

// RecordGateRedirect counts one redirect issued by the request gate.
func (e *Engine) RecordGateRedirect(ctx context.Context, from, to string) {
	if e == nil {
		return
	}
	e.metricInc(MetricGateRedirect)
	e.logger.DebugContext(ctx, "gate redirect",
		slog.String("from", from),
		slog.String("to", to),
	)
}
