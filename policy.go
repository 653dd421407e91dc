package authplane

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Scope selects how a Policy derives its rate limit identifier.
type Scope uint8

const (
	// ScopeIP keys the window on the client IP carried in the context.
	ScopeIP Scope = iota
	// ScopeSubject keys the window on the authenticated subject.
	ScopeSubject
	// ScopeSubjectIP keys the window on subject and IP combined, so a
	// credential shared across machines still gets per-machine quota.
	ScopeSubjectIP
	// ScopeCustom keys the window on an identifier the caller passes
	// explicitly via AllowFor.
	ScopeCustom
)

// Policy is a reusable rate limit decision: category prefix, identifier
// scope, and the window parameters. Policies are plain values; build them
// once and share them across call sites.
type Policy struct {
	Prefix string
	Scope  Scope
	Limit  int
	Window time.Duration
}

func (p Policy) validate() error {
	if p.Prefix == "" {
		return fmt.Errorf("%w: policy prefix must not be empty", ErrRateLimitConfig)
	}
	if p.Limit <= 0 {
		return fmt.Errorf("%w: policy limit must be positive, got %d", ErrRateLimitConfig, p.Limit)
	}
	if p.Window <= 0 {
		return fmt.Errorf("%w: policy window must be positive, got %s", ErrRateLimitConfig, p.Window)
	}
	return nil
}

// identifier resolves the window identifier for ctx. ScopeCustom policies
// must go through AllowFor; resolving them here is a configuration error.
func (p Policy) identifier(ctx context.Context) (string, error) {
	switch p.Scope {
	case ScopeIP:
		ip := ClientIPFromContext(ctx)
		if ip == "" {
			return "", fmt.Errorf("%w: policy %q requires a client IP in context", ErrRateLimitConfig, p.Prefix)
		}
		return ip, nil
	case ScopeSubject:
		subject := SubjectFromContext(ctx)
		if subject == "" {
			return "", fmt.Errorf("%w: policy %q requires a subject in context", ErrRateLimitConfig, p.Prefix)
		}
		return subject, nil
	case ScopeSubjectIP:
		subject := SubjectFromContext(ctx)
		ip := ClientIPFromContext(ctx)
		if subject == "" || ip == "" {
			return "", fmt.Errorf("%w: policy %q requires subject and client IP in context", ErrRateLimitConfig, p.Prefix)
		}
		return subject + ":" + ip, nil
	case ScopeCustom:
		return "", fmt.Errorf("%w: policy %q takes an explicit identifier", ErrRateLimitConfig, p.Prefix)
	default:
		return "", fmt.Errorf("%w: unknown policy scope %d", ErrRateLimitConfig, p.Scope)
	}
}

// Built-in category prefixes registered at engine construction.
const (
	PrefixAuth   = "auth"
	PrefixUser   = "user"
	PrefixAPI    = "api"
	PrefixPublic = "public"
)

// PrefixRegistry tracks the known rate limit category prefixes so distinct
// features never collide on the same key space. Registration is
// first-writer-wins.
type PrefixRegistry struct {
	mu       sync.RWMutex
	prefixes map[string]struct{}
}

// NewPrefixRegistry creates a registry pre-seeded with the built-in
// categories.
func NewPrefixRegistry() *PrefixRegistry {
	r := &PrefixRegistry{
		prefixes: make(map[string]struct{}, 8),
	}
	for _, p := range []string{PrefixAuth, PrefixUser, PrefixAPI, PrefixPublic} {
		r.prefixes[p] = struct{}{}
	}
	return r
}

// Register claims a category prefix. A second registration of the same
// prefix returns ErrPrefixRegistered.
func (r *PrefixRegistry) Register(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("%w: prefix must not be empty", ErrRateLimitConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.prefixes[prefix]; exists {
		return fmt.Errorf("%w: %q", ErrPrefixRegistered, prefix)
	}
	r.prefixes[prefix] = struct{}{}
	return nil
}

// Registered reports whether prefix has been claimed.
func (r *PrefixRegistry) Registered(prefix string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.prefixes[prefix]
	return exists
}

// Prefixes returns the claimed prefixes in sorted order.
func (r *PrefixRegistry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.prefixes))
	for p := range r.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
