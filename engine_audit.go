package recipeAuth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventLoginRateLimited         = "login_rate_limited"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshFailure           = "refresh_failure"
	auditEventLogout                   = "logout"
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventPasswordResetRequest     = "password_reset_request"
	auditEventPasswordResetConfirm     = "password_reset_confirm"
	auditEventEmailVerificationRequest = "email_verification_request"
	auditEventEmailVerificationConfirm = "email_verification_confirm"
	auditEventAccountLocked            = "account_locked"
	auditEventAccountUnlocked          = "account_unlocked"
	auditEventFailedAttemptsReset      = "failed_attempts_reset"
)

// AuditErrorCode is the stable reason string attached to failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrAccountUnverified  AuditErrorCode = "account_unverified"
	auditErrAccountInactive    AuditErrorCode = "account_inactive"
	auditErrAccountNotUsable   AuditErrorCode = "account_not_usable"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrChallengeInvalid   AuditErrorCode = "challenge_invalid"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrInternal           AuditErrorCode = "internal_error"
)

// recordAudit emits one event when auditing is on. The event succeeded when
// err is nil. meta holds alternating keys and values; a trailing key without
// a value is dropped.
func (e *Engine) recordAudit(ctx context.Context, eventType, userID, tenantID string, err error, meta ...string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		Type:      eventType,
		UserID:    userID,
		TenantID:  tenantID,
		ActorID:   actorIDFromContext(ctx),
		IP:        clientIPFromContext(ctx),
		Success:   err == nil,
		Reason:    string(auditErrorCode(err)),
	}
	if len(meta) >= 2 {
		event.Metadata = make(map[string]string, len(meta)/2)
		for i := 0; i+1 < len(meta); i += 2 {
			event.Metadata[meta[i]] = meta[i+1]
		}
	}
	e.audit.Emit(ctx, event)
}

// Variants are matched before their class.
func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrAccountUnverified):
		return auditErrAccountUnverified
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrAccountNotUsable):
		return auditErrAccountNotUsable
	case errors.Is(err, ErrLoginRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthorized
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrPasswordPolicy), errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrChallengeInvalid):
		return auditErrChallengeInvalid
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrConflict):
		return auditErrDuplicate
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	default:
		return auditErrInternal
	}
}
