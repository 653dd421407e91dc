package authplane

import (
	"context"
	"time"

	"github.com/mwheeler712/authplane/internal/flows"
)

// AuthResult is the outcome of a successful validation: the verified claims
// plus the resolved principal when a user provider is wired.
type AuthResult struct {
	Subject   string
	JTI       string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
	User      *UserRecord
}

// ValidateAccess runs the full access-token pipeline: signature, required
// claims, type, expiry, jti blacklist, per-subject revocation marker, and
// principal lookup. Failures map onto the package sentinels.
func (e *Engine) ValidateAccess(ctx context.Context, tokenStr string) (*AuthResult, error) {
	return e.validate(ctx, tokenStr, e.flowDeps.ValidateAccess)
}

// ValidateRefresh is ValidateAccess for refresh tokens.
func (e *Engine) ValidateRefresh(ctx context.Context, tokenStr string) (*AuthResult, error) {
	return e.validate(ctx, tokenStr, e.flowDeps.ValidateRefresh)
}

func (e *Engine) validate(ctx context.Context, tokenStr string, deps flows.ValidateDeps) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	result := flows.RunValidate(ctx, tokenStr, deps)
	if result.Kind != flows.ValidateOK {
		e.metricInc(MetricValidateFailure)
		if result.Kind == flows.ValidateFailRevoked {
			e.metricInc(MetricTokenRevokedHit)
		}
		return nil, mapValidateFailure(result.Kind, result.Cause)
	}

	e.metricInc(MetricValidateSuccess)
	return &AuthResult{
		Subject:   result.Token.Subject,
		JTI:       result.Token.JTI,
		TokenType: result.Token.TokenType,
		IssuedAt:  result.Token.IssuedAt,
		ExpiresAt: result.Token.ExpiresAt,
		User:      userFromPrincipal(result.Principal),
	}, nil
}

func mapValidateFailure(kind flows.ValidateFailureKind, _ error) error {
	switch kind {
	case flows.ValidateOK:
		return nil
	case flows.ValidateFailExpired:
		return ErrTokenExpired
	case flows.ValidateFailInvalidClaims:
		return ErrTokenInvalidClaims
	case flows.ValidateFailRevoked:
		return ErrTokenRevoked
	case flows.ValidateFailPrincipalNotFound:
		return ErrPrincipalNotFound
	default:
		return ErrTokenInvalid
	}
}
