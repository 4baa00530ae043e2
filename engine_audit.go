package goSession

import (
	"context"
	"errors"

	"github.com/MrEthical07/goSession/backend"
	"github.com/MrEthical07/goSession/internal/rate"
	"github.com/MrEthical07/goSession/refresh"
	"github.com/MrEthical07/goSession/session"
)

const (
	auditEventSignInSuccess            = "sign_in_success"
	auditEventSignInFailure            = "sign_in_failure"
	auditEventSignInRateLimited        = "sign_in_rate_limited"
	auditEventFederatedExchangeSuccess = "federated_exchange_success"
	auditEventFederatedExchangeFailure = "federated_exchange_failure"
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventSessionReplaced          = "session_replaced"
	auditEventAccessExpiring           = "access_expiring"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshFailure           = "refresh_failure"
	auditEventSignOut                  = "sign_out"
	auditEventForcedSignOut            = "forced_sign_out"
	auditEventAccessRevoked            = "access_revoked"
	auditEventAdminDenied              = "admin_denied"
)

// AuditErrorCode is the stable error tag carried by failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrExchangeFailed     AuditErrorCode = "exchange_failed"
	auditErrRefreshFailed      AuditErrorCode = "refresh_failed"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrRejected           AuditErrorCode = "rejected"
	auditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	auditErrPermissionDenied   AuditErrorCode = "permission_denied"
	auditErrAccessRevoked      AuditErrorCode = "access_revoked"
	auditErrStoreUnavailable   AuditErrorCode = "store_unavailable"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subjectID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		SubjectID: subjectID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidSignInInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrSignInRateLimited),
		errors.Is(err, rate.ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrFederatedExchangeFailed):
		return auditErrExchangeFailed
	case errors.Is(err, ErrSessionTerminal),
		errors.Is(err, refresh.ErrExchangeFailed):
		return auditErrRefreshFailed
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrRegistrationRejected),
		errors.Is(err, backend.ErrRejected):
		return auditErrRejected
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return auditErrPermissionDenied
	case errors.Is(err, ErrAccessRevoked):
		return auditErrAccessRevoked
	case errors.Is(err, session.ErrStoreUnavailable),
		errors.Is(err, ErrSessionCreationFailed):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, backend.ErrUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
