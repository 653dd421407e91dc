package authplane

import (
	"errors"
	"time"
)

// Config is the engine's full configuration tree. New seeds the builder
// with defaults; a Config passed to WithConfig replaces them wholesale, and
// zero-valued required fields fail validation at Build. Enforcement decides
// whether the engine requires a Redis backend or runs in permissive mode.
type Config struct {
	JWT         JWTConfig
	RateLimit   RateLimitConfig
	Revocation  RevocationConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
	Enforcement EnforcementMode
}

// JWTConfig controls token minting and verification.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Issuer     string
	Leeway     time.Duration
}

// RateLimitConfig holds the sliding-window parameters and the per-tier
// limits the built-in policies use, all counted per Window.
type RateLimitConfig struct {
	Namespace    string
	Window       time.Duration
	StrictLimit  int
	DefaultLimit int
	UserLimit    int
	LenientLimit int
}

// RevocationConfig names the key prefixes for the two revocation tiers.
type RevocationConfig struct {
	BlacklistPrefix string
	MarkerPrefix    string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the engine metrics block.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// EnforcementMode selects the backend capabilities wired at Build.
// ModeEnforcing requires Redis and enforces revocation and rate limits;
// ModePermissive wires no-op backends that admit everything, for local
// development and tests that exercise token logic alone.
type EnforcementMode int

const (
	ModeEnforcing EnforcementMode = iota
	ModePermissive
)

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  30 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Namespace:    "ratelimit",
			Window:       60 * time.Second,
			StrictLimit:  10,
			DefaultLimit: 100,
			UserLimit:    300,
			LenientLimit: 1000,
		},
		Revocation: RevocationConfig{
			BlacklistPrefix: "token:blacklist",
			MarkerPrefix:    "token:revoke_all",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Enforcement: ModeEnforcing,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot run with. Called by the
// builder after defaults are applied.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must not be empty")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit Window must be > 0")
	}
	if c.RateLimit.StrictLimit <= 0 {
		return errors.New("RateLimit StrictLimit must be > 0")
	}
	if c.RateLimit.DefaultLimit <= 0 {
		return errors.New("RateLimit DefaultLimit must be > 0")
	}
	if c.RateLimit.UserLimit <= 0 {
		return errors.New("RateLimit UserLimit must be > 0")
	}
	if c.RateLimit.LenientLimit <= 0 {
		return errors.New("RateLimit LenientLimit must be > 0")
	}

	if c.Revocation.BlacklistPrefix == "" {
		return errors.New("Revocation BlacklistPrefix must not be empty")
	}
	if c.Revocation.MarkerPrefix == "" {
		return errors.New("Revocation MarkerPrefix must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	switch c.Enforcement {
	case ModeEnforcing, ModePermissive:
	default:
		return errors.New("invalid enforcement mode")
	}

	return nil
}
