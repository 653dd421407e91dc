package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := New(rdb, cfg)

	return limiter, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestCheckSequentialQuota(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	ctx := context.Background()
	key := limiter.Key("auth", "203.0.113.1")
	limit := 10

	for i := 0; i < limit; i++ {
		allowed, decision, err := limiter.Check(ctx, key, limit, time.Minute)
		if err != nil {
			t.Fatalf("Check %d failed: %v", i, err)
		}
		if !allowed {
			t.Fatalf("request %d denied, want allowed", i)
		}
		wantRemaining := limit - i - 1
		if decision.Remaining != wantRemaining {
			t.Fatalf("request %d remaining = %d, want %d", i, decision.Remaining, wantRemaining)
		}
		if decision.Limit != limit {
			t.Fatalf("decision limit = %d, want %d", decision.Limit, limit)
		}
	}

	allowed, decision, err := limiter.Check(ctx, key, limit, time.Minute)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if allowed {
		t.Fatal("request past the limit admitted")
	}
	if decision.Remaining != 0 {
		t.Fatalf("denied remaining = %d, want 0", decision.Remaining)
	}
}

func TestCheckWindowSlides(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	base := time.Now()
	current := base
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	key := limiter.Key("auth", "203.0.113.1")
	window := time.Minute

	for i := 0; i < 3; i++ {
		if allowed, _, err := limiter.Check(ctx, key, 3, window); err != nil || !allowed {
			t.Fatalf("warmup check %d: allowed=%v err=%v", i, allowed, err)
		}
	}
	if allowed, _, err := limiter.Check(ctx, key, 3, window); err != nil || allowed {
		t.Fatalf("expected denial at the limit: allowed=%v err=%v", allowed, err)
	}

	// Past the window the old entries age out of the sorted set.
	current = base.Add(window + time.Second)

	allowed, decision, err := limiter.Check(ctx, key, 3, window)
	if err != nil {
		t.Fatalf("Check after window failed: %v", err)
	}
	if !allowed {
		t.Fatal("expected admission after the window slid past old entries")
	}
	if decision.Remaining != 2 {
		t.Fatalf("remaining = %d, want 2", decision.Remaining)
	}
}

func TestCheckConfigurationErrorSkipsStore(t *testing.T) {
	limiter, mr, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	ctx := context.Background()

	if _, _, err := limiter.Check(ctx, "rl:auth:ip", 0, time.Minute); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("zero limit: expected ErrConfiguration, got %v", err)
	}
	if _, _, err := limiter.Check(ctx, "rl:auth:ip", 10, 0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("zero window: expected ErrConfiguration, got %v", err)
	}
	if _, err := limiter.Peek(ctx, "rl:auth:ip", -1, time.Minute); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("peek negative limit: expected ErrConfiguration, got %v", err)
	}

	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("configuration errors must not touch the store, found keys %v", keys)
	}
}

func TestCheckFailsOpenOnStoreFault(t *testing.T) {
	var degradedOp string
	limiter, mr, done := newTestLimiter(t, Config{
		Namespace: "rl",
		OnDegraded: func(op, key string, err error) {
			degradedOp = op
		},
	})
	defer done()

	mr.Close()

	allowed, decision, err := limiter.Check(context.Background(), "rl:auth:ip", 10, time.Minute)
	if err != nil {
		t.Fatalf("expected fail-open nil error, got %v", err)
	}
	if !allowed {
		t.Fatal("expected admission on store fault")
	}
	if decision.Remaining != decision.Limit || decision.Limit != 10 {
		t.Fatalf("fail-open decision = %+v, want full quota", decision)
	}
	if degradedOp != "check" {
		t.Fatalf("degraded op = %q, want check", degradedOp)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	ctx := context.Background()
	key := limiter.Key("api", "203.0.113.1")

	if _, _, err := limiter.Check(ctx, key, 5, time.Minute); err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		decision, err := limiter.Peek(ctx, key, 5, time.Minute)
		if err != nil {
			t.Fatalf("Peek failed: %v", err)
		}
		if decision.Remaining != 4 {
			t.Fatalf("peek %d remaining = %d, want 4", i, decision.Remaining)
		}
	}
}

func TestResetClearsWindow(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	ctx := context.Background()
	key := limiter.Key("auth", "203.0.113.1")

	for i := 0; i < 2; i++ {
		if allowed, _, err := limiter.Check(ctx, key, 2, time.Minute); err != nil || !allowed {
			t.Fatalf("warmup check %d: allowed=%v err=%v", i, allowed, err)
		}
	}
	if allowed, _, _ := limiter.Check(ctx, key, 2, time.Minute); allowed {
		t.Fatal("expected denial before reset")
	}

	if err := limiter.Reset(ctx, key); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	allowed, decision, err := limiter.Check(ctx, key, 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("post-reset check: allowed=%v err=%v", allowed, err)
	}
	if decision.Remaining != 1 {
		t.Fatalf("post-reset remaining = %d, want 1", decision.Remaining)
	}
}

func TestDistinctKeysIndependent(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	ctx := context.Background()
	first := limiter.Key("auth", "203.0.113.1")
	second := limiter.Key("auth", "203.0.113.2")

	if allowed, _, err := limiter.Check(ctx, first, 1, time.Minute); err != nil || !allowed {
		t.Fatalf("first key check: allowed=%v err=%v", allowed, err)
	}
	if allowed, _, _ := limiter.Check(ctx, first, 1, time.Minute); allowed {
		t.Fatal("first key should be exhausted")
	}

	allowed, decision, err := limiter.Check(ctx, second, 1, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("second key check: allowed=%v err=%v", allowed, err)
	}
	if decision.Remaining != 0 {
		t.Fatalf("second key remaining = %d, want 0", decision.Remaining)
	}
}

func TestKeyLayout(t *testing.T) {
	limiter, _, done := newTestLimiter(t, Config{Namespace: "rl"})
	defer done()

	if got := limiter.Key("auth", "203.0.113.1"); got != "rl:auth:203.0.113.1" {
		t.Fatalf("Key = %q", got)
	}

	defaulted := New(nil, Config{})
	if got := defaulted.Key("api", "u1"); got != "ratelimit:api:u1" {
		t.Fatalf("default namespace Key = %q", got)
	}
}
