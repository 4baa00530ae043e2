package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/refresh"
)

// SignIn exchanges email and password for a credential pair and binds a new
// session to the caller. Any session already bound to the caller's handle
// is replaced.
//
// A non-2xx answer from the remote API is ErrInvalidCredentials; the caller
// can retry. Input failing local validation is ErrInvalidSignInInput and
// never reaches the remote API.
func (e *Engine) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if err := e.validateCredentialsInput(email, password); err != nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, "", "", err, nil)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	if e.limiter != nil {
		if err := e.limiter.CheckSignIn(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricSignInRateLimited)
				e.emitAudit(ctx, auditEventSignInRateLimited, false, "", "", err, nil)
				return nil, ErrSignInRateLimited
			}
			e.logger.WarnContext(ctx, "sign-in throttle unavailable", slog.Any("error", err))
		}
	}

	pair, err := e.backend.Login(ctx, email, password)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		if errors.Is(err, backend.ErrRejected) {
			e.recordSignInFailure(ctx, email, ip)
			e.emitAudit(ctx, auditEventSignInFailure, false, "", "", ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		e.emitAudit(ctx, auditEventSignInFailure, false, "", "", err, nil)
		e.logger.WarnContext(ctx, "sign-in backend unavailable", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if e.limiter != nil {
		if err := e.limiter.Reset(ctx, email); err != nil {
			e.logger.WarnContext(ctx, "sign-in throttle reset failed", slog.Any("error", err))
		}
	}

	sess, err := e.establish(ctx, pair)
	if err != nil {
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, "", "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSignInSuccess)
	e.emitAudit(ctx, auditEventSignInSuccess, true, sess.SubjectID, sess.ID, nil, func() map[string]string {
		return map[string]string{"method": "password"}
	})
	return sess, nil
}

// SignInFederated exchanges a federated identity token (a Google ID token)
// for a credential pair and binds a new session to the caller.
//
// On failure nothing is stored and the returned view is failed with
// SessionErrorExchangeFailed, alongside ErrFederatedExchangeFailed.
func (e *Engine) SignInFederated(ctx context.Context, idToken string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	failed := &Session{State: StateFailed, Error: SessionErrorExchangeFailed}

	if strings.TrimSpace(idToken) == "" {
		e.metricInc(MetricFederatedExchangeFailure)
		e.emitAudit(ctx, auditEventFederatedExchangeFailure, false, "", "", ErrFederatedExchangeFailed, nil)
		return failed, fmt.Errorf("%w: empty identity token", ErrFederatedExchangeFailed)
	}

	pair, err := e.backend.ExchangeFederated(ctx, idToken)
	if err != nil {
		e.metricInc(MetricFederatedExchangeFailure)
		e.emitAudit(ctx, auditEventFederatedExchangeFailure, false, "", "", err, nil)
		e.logger.WarnContext(ctx, "federated exchange failed",
			slog.Int("status", backend.StatusCode(err)),
			slog.Any("error", err),
		)
		return failed, fmt.Errorf("%w: %v", ErrFederatedExchangeFailed, err)
	}

	sess, err := e.establish(ctx, pair)
	if err != nil {
		e.metricInc(MetricFederatedExchangeFailure)
		e.emitAudit(ctx, auditEventFederatedExchangeFailure, false, "", "", err, nil)
		return failed, err
	}

	e.metricInc(MetricFederatedExchangeSuccess)
	e.emitAudit(ctx, auditEventFederatedExchangeSuccess, true, sess.SubjectID, sess.ID, nil, func() map[string]string {
		return map[string]string{"method": "federated"}
	})
	return sess, nil
}

// Register creates an account on the remote API and establishes a session
// with the pair issued for it.
//
// A 409 answer is ErrAccountExists; any other refusal is
// ErrRegistrationRejected carrying the remote API's detail message.
func (e *Engine) Register(ctx context.Context, email, password string) (*Session, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	email = strings.TrimSpace(email)
	if err := e.validateCredentialsInput(email, password); err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	pair, err := e.backend.Register(ctx, email, password)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		var se *backend.StatusError
		switch {
		case errors.As(err, &se) && se.StatusCode == http.StatusConflict:
			err = ErrAccountExists
		case errors.As(err, &se):
			err = fmt.Errorf("%w: %s", ErrRegistrationRejected, registrationDetail(se))
		case errors.Is(err, backend.ErrRejected):
			err = fmt.Errorf("%w: no credentials issued", ErrRegistrationRejected)
		default:
			err = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	sess, err := e.establish(ctx, pair)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, nil)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, sess.SubjectID, sess.ID, nil, nil)
	return sess, nil
}

// establish replaces the caller's current session with a new record for
// pair. The expiry is derived from the local issuance instant, never from
// the credential.
func (e *Engine) establish(ctx context.Context, pair backend.TokenPair) (*Session, error) {
	e.replaceCurrent(ctx)

	issued := e.now()
	rec := e.recordFromPair(e.newID(), refresh.Pair{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IssuedAt:     issued,
	}, issued.UnixMilli())

	if err := e.store.Save(ctx, rec); err != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.ErrorContext(ctx, "storing new session", slog.Any("error", err))
		e.revoke(ctx, pair.RefreshToken)
		return nil, fmt.Errorf("%w: %v", ErrSessionCreationFailed, err)
	}

	e.logger.InfoContext(ctx, "session established",
		slog.String("session_id", rec.SessionID),
		slog.String("subject_id", rec.SubjectID),
		slog.String("role", rec.Role),
		slog.Any("access_token", secret(rec.AccessToken)),
	)
	return viewOf(rec, StateAuthenticated), nil
}

// replaceCurrent removes the record bound to the caller's handle so one
// user agent never holds two sessions. Its refresh credential is revoked.
func (e *Engine) replaceCurrent(ctx context.Context) {
	id := SessionIDFromContext(ctx)
	if id == "" {
		return
	}

	rec, err := e.store.Get(ctx, id)
	existed, derr := e.store.Delete(ctx, id)
	e.refresher.Forget(id)
	if derr != nil {
		e.metricInc(MetricStoreFailure)
		e.logger.WarnContext(ctx, "removing replaced session", slog.String("session_id", id), slog.Any("error", derr))
		return
	}
	if !existed || err != nil {
		return
	}

	if !rec.Terminal() {
		e.revoke(ctx, rec.RefreshToken)
	}
	e.emitAudit(ctx, auditEventSessionReplaced, true, rec.SubjectID, id, nil, nil)
}

func (e *Engine) validateCredentialsInput(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidSignInInput)
	}
	if utf8.RuneCountInString(password) < e.config.SignIn.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignInInput, e.config.SignIn.MinPasswordLength)
	}
	return nil
}

func (e *Engine) recordSignInFailure(ctx context.Context, email, ip string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, email, ip); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		e.logger.WarnContext(ctx, "sign-in throttle unavailable", slog.Any("error", err))
	}
}

func registrationDetail(se *backend.StatusError) string {
	if se.Detail != "" {
		return se.Detail
	}
	return fmt.Sprintf("status %d", se.StatusCode)
}
