// Package authplane is a Redis-backed authorization control plane: HMAC JWT
// issuance and validation, two-tier token revocation (per-jti blacklist plus
// per-subject mass revocation), and atomic sliding-window rate limiting.
//
// Build an Engine with the builder:
//
//	engine, err := authplane.New().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithUserProvider(provider).
//		Build()
//
// Revocation and rate limit reads fail open: a Redis outage degrades to
// stateless JWT validation and unlimited admission rather than an outage of
// the host service. Degradations are counted and audited.
package authplane
