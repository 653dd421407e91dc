package authplane

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwheeler712/authplane/internal/ratelimit"
)

// AuthPolicy is the strict per-IP policy for credential endpoints.
func (e *Engine) AuthPolicy() Policy {
	return Policy{
		Prefix: PrefixAuth,
		Scope:  ScopeIP,
		Limit:  e.config.RateLimit.StrictLimit,
		Window: e.config.RateLimit.Window,
	}
}

// UserPolicy is the per-subject policy for authenticated traffic.
func (e *Engine) UserPolicy() Policy {
	return Policy{
		Prefix: PrefixUser,
		Scope:  ScopeSubject,
		Limit:  e.config.RateLimit.UserLimit,
		Window: e.config.RateLimit.Window,
	}
}

// APIPolicy is the default per-IP policy for general API traffic.
func (e *Engine) APIPolicy() Policy {
	return Policy{
		Prefix: PrefixAPI,
		Scope:  ScopeIP,
		Limit:  e.config.RateLimit.DefaultLimit,
		Window: e.config.RateLimit.Window,
	}
}

// PublicPolicy is the lenient per-IP policy for unauthenticated surfaces.
func (e *Engine) PublicPolicy() Policy {
	return Policy{
		Prefix: PrefixPublic,
		Scope:  ScopeIP,
		Limit:  e.config.RateLimit.LenientLimit,
		Window: e.config.RateLimit.Window,
	}
}

// RegisterPrefix claims a rate limit category for a host feature. Duplicate
// registrations return ErrPrefixRegistered.
func (e *Engine) RegisterPrefix(prefix string) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}
	return e.registry.Register(prefix)
}

// Allow decides whether one more request under the policy fits the window,
// deriving the identifier from the context per the policy's scope. A denied
// request returns ErrRateLimited alongside the populated decision so callers
// can surface quota headers. Misconfiguration never consumes quota.
func (e *Engine) Allow(ctx context.Context, p Policy) (RateLimitDecision, error) {
	identifier, err := p.identifier(ctx)
	if err != nil {
		return RateLimitDecision{}, err
	}
	return e.AllowFor(ctx, p, identifier)
}

// AllowFor is Allow with an explicit identifier, for ScopeCustom policies
// and callers that resolve identity themselves.
func (e *Engine) AllowFor(ctx context.Context, p Policy, identifier string) (RateLimitDecision, error) {
	if e == nil || e.limiter == nil {
		return RateLimitDecision{}, ErrEngineNotReady
	}
	if err := p.validate(); err != nil {
		return RateLimitDecision{}, err
	}
	if identifier == "" {
		return RateLimitDecision{}, fmt.Errorf("%w: identifier must not be empty", ErrRateLimitConfig)
	}
	if !e.registry.Registered(p.Prefix) {
		return RateLimitDecision{}, fmt.Errorf("%w: unregistered prefix %q", ErrRateLimitConfig, p.Prefix)
	}

	key := e.limiter.Key(p.Prefix, identifier)
	allowed, decision, err := e.limiter.Check(ctx, key, p.Limit, p.Window)
	if err != nil {
		return RateLimitDecision{}, e.mapRateLimitError(err)
	}

	out := decisionFromInternal(key, allowed, decision)
	if !allowed {
		e.metricInc(MetricRateLimitDenied)
		e.emitAudit(ctx, auditEventRateLimitDenied, false, SubjectFromContext(ctx), "", key, ErrRateLimited, nil)
		return out, ErrRateLimited
	}

	e.metricInc(MetricRateLimitAllowed)
	return out, nil
}

// CheckRateLimit is the raw window check on a fully qualified key, bypassing
// policies and the prefix registry. Invalid parameters fail before any store
// round-trip.
func (e *Engine) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, RateLimitDecision, error) {
	if e == nil || e.limiter == nil {
		return false, RateLimitDecision{}, ErrEngineNotReady
	}
	allowed, decision, err := e.limiter.Check(ctx, key, limit, window)
	if err != nil {
		return false, RateLimitDecision{}, e.mapRateLimitError(err)
	}
	if allowed {
		e.metricInc(MetricRateLimitAllowed)
	} else {
		e.metricInc(MetricRateLimitDenied)
	}
	return allowed, decisionFromInternal(key, allowed, decision), nil
}

// PeekRateLimit reports the current quota for key without recording an
// attempt.
func (e *Engine) PeekRateLimit(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error) {
	if e == nil || e.limiter == nil {
		return RateLimitDecision{}, ErrEngineNotReady
	}
	decision, err := e.limiter.Peek(ctx, key, limit, window)
	if err != nil {
		return RateLimitDecision{}, e.mapRateLimitError(err)
	}
	return decisionFromInternal(key, decision.Remaining > 0, decision), nil
}

// ResetRateLimit drops all recorded attempts for key.
func (e *Engine) ResetRateLimit(ctx context.Context, key string) error {
	if e == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	if err := e.limiter.Reset(ctx, key); err != nil {
		return e.mapRateLimitError(err)
	}
	return nil
}

// RateLimitKey builds the fully qualified store key for a category and
// identifier, using the engine's namespace.
func (e *Engine) RateLimitKey(category, identifier string) string {
	if e == nil || e.limiter == nil {
		return ""
	}
	return e.limiter.Key(category, identifier)
}

func (e *Engine) mapRateLimitError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrConfiguration):
		return fmt.Errorf("%w: %v", ErrRateLimitConfig, err)
	case errors.Is(err, ratelimit.ErrRedisUnavailable):
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	default:
		return err
	}
}

func decisionFromInternal(key string, allowed bool, d ratelimit.Decision) RateLimitDecision {
	return RateLimitDecision{
		Allowed:   allowed,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetTime: d.ResetTime,
		Key:       key,
	}
}
