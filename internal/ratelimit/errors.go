package ratelimit

import "errors"

var (
	// ErrConfiguration marks a caller bug: a non-positive limit or window.
	// It is raised before any store round-trip.
	ErrConfiguration = errors.New("invalid rate limit configuration")
	// ErrRedisUnavailable wraps store faults on paths that cannot fail open.
	ErrRedisUnavailable = errors.New("rate limit redis unavailable")
)
