package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the quota snapshot computed by a check. ResetTime is a unix
// timestamp in seconds.
type Decision struct {
	Limit     int
	Remaining int
	ResetTime int64
	Window    time.Duration
}

// Config holds limiter wiring. OnDegraded is invoked once per failed store
// batch before the limiter fails open; it must not block.
type Config struct {
	Namespace  string
	OnDegraded func(op, key string, err error)
}

// Limiter enforces per-key sliding-window limits backed by Redis sorted
// sets. Admitted and denied attempts are both recorded; entries age out of
// the window and the whole key expires after one idle window.
type Limiter struct {
	redis      redis.UniversalClient
	namespace  string
	onDegraded func(op, key string, err error)
	now        func() time.Time
}

// New creates a Limiter backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "ratelimit"
	}
	return &Limiter{
		redis:      redisClient,
		namespace:  namespace,
		onDegraded: cfg.OnDegraded,
		now:        time.Now,
	}
}

// Key builds the fully qualified store key for a category/identifier pair.
func (l *Limiter) Key(category, identifier string) string {
	return l.namespace + ":" + category + ":" + identifier
}

// Check decides whether one more request on key fits inside the window.
// The four store steps (prune, record, count, refresh TTL) run as a single
// transaction; any store fault fails open with the full quota reported.
// A non-positive limit or window is a configuration error and never reaches
// the store.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (bool, Decision, error) {
	if limit <= 0 {
		return false, Decision{}, fmt.Errorf("%w: limit must be positive, got %d", ErrConfiguration, limit)
	}
	if window <= 0 {
		return false, Decision{}, fmt.Errorf("%w: window must be positive, got %s", ErrConfiguration, window)
	}

	now := l.now()
	nowMicro := now.UnixMicro()
	windowStart := nowMicro - window.Microseconds()

	// Unique even when two requests land on the same microsecond, so a
	// concurrent attempt never overwrites another member.
	member := strconv.FormatInt(nowMicro, 10) + ":" + uuid.NewString()[:8]

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(nowMicro), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		l.degraded("check", key, err)
		return true, openDecision(now, limit, window), nil
	}

	count := int(card.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	decision := Decision{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(window).Unix(),
		Window:    window,
	}

	// The count includes the attempt just recorded; exactly limit requests
	// are admitted per window.
	return count <= limit, decision, nil
}

// Peek reports the current quota for key without recording an attempt.
// Stale members are pruned so the count reflects the live window.
func (l *Limiter) Peek(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{}, fmt.Errorf("%w: limit must be positive, got %d", ErrConfiguration, limit)
	}
	if window <= 0 {
		return Decision{}, fmt.Errorf("%w: window must be positive, got %s", ErrConfiguration, window)
	}

	now := l.now()
	windowStart := now.UnixMicro() - window.Microseconds()

	pipe := l.redis.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	card := pipe.ZCard(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		l.degraded("peek", key, err)
		return openDecision(now, limit, window), nil
	}

	remaining := limit - int(card.Val())
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(window).Unix(),
		Window:    window,
	}, nil
}

// Reset drops all recorded attempts for key. Used by operators to unblock
// an identity; not part of the admission path.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) degraded(op, key string, err error) {
	if l.onDegraded != nil {
		l.onDegraded(op, key, err)
	}
}

func openDecision(now time.Time, limit int, window time.Duration) Decision {
	return Decision{
		Limit:     limit,
		Remaining: limit,
		ResetTime: now.Add(window).Unix(),
		Window:    window,
	}
}
