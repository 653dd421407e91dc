package flows

import (
	"context"
	"time"
)

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	Logout string
}

// LogoutDeps captures logout flow dependencies. Parse must be strict: an
// expired or forged token is rejected rather than blacklisted.
type LogoutDeps struct {
	Now   func() time.Time
	Parse func(token string) (*TokenInfo, error)

	Revoke     func(ctx context.Context, jti string, ttl time.Duration) error
	MapFailure func(kind ValidateFailureKind, cause error) error

	MetricInc       func(int)
	EmitAudit       func(ctx context.Context, event string, success bool, subject string, cause error)
	MetricRevoked   int
	Events          LogoutEvents
	EngineNotReady  error
	ErrInvalidToken error
}

// RunLogout blacklists the presented token's jti for its remaining lifetime.
// The blacklist entry needs to live no longer than the token itself.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) error {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error) {}
	}
	if deps.Parse == nil || deps.Revoke == nil {
		return deps.EngineNotReady
	}

	info, err := deps.Parse(token)
	if err != nil {
		mapped := deps.ErrInvalidToken
		if deps.MapFailure != nil {
			mapped = deps.MapFailure(ValidateFailInvalid, err)
		}
		deps.EmitAudit(ctx, deps.Events.Logout, false, "", mapped)
		return mapped
	}
	if info.JTI == "" || !info.HasExpiry {
		deps.EmitAudit(ctx, deps.Events.Logout, false, info.Subject, deps.ErrInvalidToken)
		return deps.ErrInvalidToken
	}

	ttl := info.ExpiresAt.Sub(deps.Now())
	if err := deps.Revoke(ctx, info.JTI, ttl); err != nil {
		deps.EmitAudit(ctx, deps.Events.Logout, false, info.Subject, err)
		return err
	}

	deps.MetricInc(deps.MetricRevoked)
	deps.EmitAudit(ctx, deps.Events.Logout, true, info.Subject, nil)
	return nil
}
