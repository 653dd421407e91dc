package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps store faults on revocation writes.
	ErrRedisUnavailable = errors.New("revocation redis unavailable")
)

const revokedMarker = "revoked"

// Config holds store wiring. MaxTokenLifetime caps every TTL written by the
// store so revocation state never outlives the tokens it guards. OnDegraded
// is invoked whenever a read fails open; it must not block.
type Config struct {
	BlacklistPrefix  string
	MarkerPrefix     string
	MaxTokenLifetime time.Duration
	OnDegraded       func(op, key string, err error)
}

// Store persists revocation state in Redis. Entries are markers only; their
// existence (or the marker timestamp) is the whole payload.
type Store struct {
	redis           redis.UniversalClient
	blacklistPrefix string
	markerPrefix    string
	maxLifetime     time.Duration
	onDegraded      func(op, key string, err error)
	now             func() time.Time
}

// New creates a revocation Store backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Store {
	blacklistPrefix := cfg.BlacklistPrefix
	if blacklistPrefix == "" {
		blacklistPrefix = "token:blacklist"
	}
	markerPrefix := cfg.MarkerPrefix
	if markerPrefix == "" {
		markerPrefix = "token:revoke_all"
	}
	return &Store{
		redis:           redisClient,
		blacklistPrefix: blacklistPrefix,
		markerPrefix:    markerPrefix,
		maxLifetime:     cfg.MaxTokenLifetime,
		onDegraded:      cfg.OnDegraded,
		now:             time.Now,
	}
}

func (s *Store) blacklistKey(jti string) string {
	return s.blacklistPrefix + ":" + jti
}

func (s *Store) markerKey(subject string) string {
	return s.markerPrefix + ":" + subject
}

// Revoke blacklists a single jti for ttl, normally the remaining lifetime of
// the token being revoked. The TTL is clamped to the maximum token lifetime;
// a non-positive ttl is a no-op because the token is already expired.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return errors.New("revocation jti must not be empty")
	}
	if ttl <= 0 {
		return nil
	}
	ttl = s.clamp(ttl)

	if err := s.redis.Set(ctx, s.blacklistKey(jti), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// IsRevoked reports whether jti is blacklisted. Store faults fail open:
// the degradation hook fires and the token is treated as not revoked.
func (s *Store) IsRevoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}

	n, err := s.redis.Exists(ctx, s.blacklistKey(jti)).Result()
	if err != nil {
		s.degraded("is_revoked", s.blacklistKey(jti), err)
		return false
	}

	return n > 0
}

// RevokeAllForUser writes the per-subject mass-revocation marker, stamped
// with the current time. Every token issued before the marker is invalid
// regardless of its blacklist state. Last write wins; the TTL is clamped so
// the marker outlives any outstanding token but nothing more.
func (s *Store) RevokeAllForUser(ctx context.Context, subject string, ttl time.Duration) error {
	if subject == "" {
		return errors.New("revocation subject must not be empty")
	}
	if ttl <= 0 {
		ttl = s.maxLifetime
	}
	ttl = s.clamp(ttl)
	if ttl <= 0 {
		return errors.New("revocation ttl must be positive")
	}

	stamp := strconv.FormatInt(s.now().Unix(), 10)
	if err := s.redis.Set(ctx, s.markerKey(subject), stamp, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// UserRevokedAt returns the mass-revocation timestamp for subject, if one is
// live. Store faults fail open as "no marker".
func (s *Store) UserRevokedAt(ctx context.Context, subject string) (int64, bool) {
	if subject == "" {
		return 0, false
	}

	value, err := s.redis.Get(ctx, s.markerKey(subject)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.degraded("user_revoked_at", s.markerKey(subject), err)
		}
		return 0, false
	}

	stamp, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}

	return stamp, true
}

func (s *Store) clamp(ttl time.Duration) time.Duration {
	if s.maxLifetime > 0 && ttl > s.maxLifetime {
		return s.maxLifetime
	}
	return ttl
}

func (s *Store) degraded(op, key string, err error) {
	if s.onDegraded != nil {
		s.onDegraded(op, key, err)
	}
}
