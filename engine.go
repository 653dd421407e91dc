package authplane

import (
	"context"
	"time"

	"github.com/mwheeler712/authplane/internal/flows"
	"github.com/mwheeler712/authplane/internal/ratelimit"
	"github.com/mwheeler712/authplane/jwt"
	"github.com/mwheeler712/authplane/password"
)

// rateLimitBackend is the admission capability selected at Build: the Redis
// sliding-window limiter in enforcing mode, an always-allow backend in
// permissive mode.
type rateLimitBackend interface {
	Key(category, identifier string) string
	Check(ctx context.Context, key string, limit int, window time.Duration) (bool, ratelimit.Decision, error)
	Peek(ctx context.Context, key string, limit int, window time.Duration) (ratelimit.Decision, error)
	Reset(ctx context.Context, key string) error
}

// revocationBackend is the revocation capability selected at Build.
type revocationBackend interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) bool
	RevokeAllForUser(ctx context.Context, subject string, ttl time.Duration) error
	UserRevokedAt(ctx context.Context, subject string) (int64, bool)
}

// Engine is the authorization control plane: token issuance and validation,
// two-tier revocation, and sliding-window rate limiting behind one facade.
// Build it with New(); all methods are safe for concurrent use.
type Engine struct {
	config      Config
	jwtManager  *jwt.Manager
	limiter     rateLimitBackend
	revocations revocationBackend
	registry    *PrefixRegistry
	audit       *auditDispatcher
	metrics     *Metrics
	hasher      password.Hasher
	users       UserProvider
	dummyHash   string
	flowDeps    flows.Deps
}

// Close flushes and stops the audit dispatcher. The engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports audit events discarded under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine's counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// PrefixRegistry exposes the rate limit category registry for host features
// that claim their own key spaces.
func (e *Engine) PrefixRegistry() *PrefixRegistry {
	if e == nil {
		return nil
	}
	return e.registry
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// parseToken adapts the jwt manager's claims to the flow-local token view.
func (e *Engine) parseToken(tokenStr string) (*flows.TokenInfo, error) {
	claims, err := e.jwtManager.Parse(tokenStr)
	if err != nil {
		return nil, err
	}

	info := &flows.TokenInfo{
		Subject:   claims.Subject,
		JTI:       claims.ID,
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
		info.HasIssuedAt = true
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
		info.HasExpiry = true
	}
	return info, nil
}

// issuePair mints a fresh access/refresh pair for subject.
func (e *Engine) issuePair(_ context.Context, subject string) (string, string, error) {
	access, _, err := e.jwtManager.IssueAccess(subject)
	if err != nil {
		return "", "", err
	}
	refresh, _, err := e.jwtManager.IssueRefresh(subject)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (e *Engine) lookupPrincipal(ctx context.Context, subject string) (*flows.PrincipalRecord, error) {
	if e.users == nil {
		// No provider wired: tokens validate on their own claims.
		return &flows.PrincipalRecord{ID: subject}, nil
	}
	user, err := e.users.GetByID(ctx, subject)
	if err != nil || user == nil {
		return nil, err
	}
	return principalFromUser(user), nil
}

func principalFromUser(u *UserRecord) *flows.PrincipalRecord {
	return &flows.PrincipalRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

func userFromPrincipal(p *flows.PrincipalRecord) *UserRecord {
	if p == nil {
		return nil
	}
	return &UserRecord{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
	}
}

// openRateLimiter admits every request with a full quota. Wired in
// permissive mode where no Redis backend exists.
type openRateLimiter struct {
	namespace string
}

func (o openRateLimiter) Key(category, identifier string) string {
	return o.namespace + ":" + category + ":" + identifier
}

func (o openRateLimiter) Check(_ context.Context, _ string, limit int, window time.Duration) (bool, ratelimit.Decision, error) {
	return true, openRateDecision(limit, window), nil
}

func (o openRateLimiter) Peek(_ context.Context, _ string, limit int, window time.Duration) (ratelimit.Decision, error) {
	return openRateDecision(limit, window), nil
}

func (o openRateLimiter) Reset(context.Context, string) error {
	return nil
}

func openRateDecision(limit int, window time.Duration) ratelimit.Decision {
	return ratelimit.Decision{
		Limit:     limit,
		Remaining: limit,
		ResetTime: time.Now().Add(window).Unix(),
		Window:    window,
	}
}

// openRevocations treats every token as live. Wired in permissive mode.
type openRevocations struct{}

func (openRevocations) Revoke(context.Context, string, time.Duration) error { return nil }

func (openRevocations) IsRevoked(context.Context, string) bool { return false }

func (openRevocations) RevokeAllForUser(context.Context, string, time.Duration) error { return nil }

func (openRevocations) UserRevokedAt(context.Context, string) (int64, bool) { return 0, false }
