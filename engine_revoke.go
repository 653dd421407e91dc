package authplane

import (
	"context"
	"time"

	"github.com/mwheeler712/authplane/internal/flows"
)

// Logout blacklists the presented token's jti for its remaining lifetime.
// Expired or forged tokens are rejected, not blacklisted.
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return flows.RunLogout(ctx, tokenStr, e.flowDeps.Logout)
}

// LogoutPair revokes both tokens of a pair. Either token may be empty; the
// first failure wins but both revocations are attempted.
func (e *Engine) LogoutPair(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	var firstErr error
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		if err := e.Logout(ctx, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RevokeToken blacklists a jti directly, for operators holding the token ID
// rather than the token. The TTL should be the token's remaining lifetime;
// it is clamped to the maximum token lifetime, and ttl <= 0 is a no-op.
func (e *Engine) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if e == nil || e.revocations == nil {
		return ErrEngineNotReady
	}
	if err := e.revocations.Revoke(ctx, jti, ttl); err != nil {
		e.emitAudit(ctx, auditEventTokenRevoked, false, "", jti, "", err, nil)
		return err
	}
	e.metricInc(MetricTokenRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, "", jti, "", nil, nil)
	return nil
}

// IsRevoked reports whether jti is blacklisted. A degraded store reads as
// not revoked.
func (e *Engine) IsRevoked(ctx context.Context, jti string) bool {
	if e == nil || e.revocations == nil {
		return false
	}
	return e.revocations.IsRevoked(ctx, jti)
}

// RevokeAllForUser invalidates every token issued to subject before now by
// writing the per-subject marker. With ttl <= 0 the marker lives for the
// maximum token lifetime, long enough to outlast any outstanding token.
func (e *Engine) RevokeAllForUser(ctx context.Context, subject string, ttl time.Duration) error {
	if e == nil || e.revocations == nil {
		return ErrEngineNotReady
	}
	if err := e.revocations.RevokeAllForUser(ctx, subject, ttl); err != nil {
		e.emitAudit(ctx, auditEventUserRevoked, false, subject, "", "", err, nil)
		return err
	}
	e.metricInc(MetricUserRevocations)
	e.emitAudit(ctx, auditEventUserRevoked, true, subject, "", "", nil, nil)
	return nil
}

// UserRevocationMarker returns the live mass-revocation timestamp for
// subject, if any.
func (e *Engine) UserRevocationMarker(ctx context.Context, subject string) (int64, bool) {
	if e == nil || e.revocations == nil {
		return 0, false
	}
	return e.revocations.UserRevokedAt(ctx, subject)
}
