package authplane

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventSignup          = "signup"
	auditEventRefreshSuccess  = "refresh_success"
	auditEventRefreshFailure  = "refresh_failure"
	auditEventLogout          = "logout"
	auditEventTokenRevoked    = "token_revoked"
	auditEventUserRevoked     = "user_revoked"
	auditEventPasswordChange  = "password_change"
	auditEventRateLimitDenied = "rate_limit_denied"
	auditEventStoreDegraded   = "store_degraded"
)

// AuditErrorCode is the stable error label written into audit events so sink
// consumers never parse error strings.
type AuditErrorCode string

const (
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrInvalidClaims      AuditErrorCode = "invalid_claims"
	auditErrTokenRevoked       AuditErrorCode = "token_revoked"
	auditErrPrincipalNotFound  AuditErrorCode = "principal_not_found"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrConfiguration      AuditErrorCode = "configuration"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	jti string,
	key string,
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
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Subject:   subject,
		JTI:       jti,
		Key:       key,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

// emitDegraded records a fail-open store fault. Called from the store
// degradation hooks wired at Build; the raw store error is wrapped so the
// event labels it backend_unavailable rather than internal_error.
func (e *Engine) emitDegraded(component, op, key string, err error) {
	if err != nil && !errors.Is(err, ErrRedisUnavailable) {
		err = fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	e.emitAudit(context.Background(), auditEventStoreDegraded, false, "", "", key, err, func() map[string]string {
		return map[string]string{
			"component": component,
			"op":        op,
		}
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenInvalidClaims):
		return auditErrInvalidClaims
	case errors.Is(err, ErrTokenRevoked):
		return auditErrTokenRevoked
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrPrincipalNotFound):
		return auditErrPrincipalNotFound
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrRateLimitConfig), errors.Is(err, ErrPrefixRegistered):
		return auditErrConfiguration
	case errors.Is(err, ErrRedisUnavailable), errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
