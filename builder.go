package authplane

import (
	"context"
	"errors"

	"github.com/mwheeler712/authplane/internal/flows"
	"github.com/mwheeler712/authplane/internal/ratelimit"
	"github.com/mwheeler712/authplane/internal/revocation"
	"github.com/mwheeler712/authplane/jwt"
	"github.com/mwheeler712/authplane/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Chain the With* methods and call Build once.
type Builder struct {
	config Config
	redis  *redis.Client

	userProvider UserProvider
	hasher       password.Hasher
	auditSink    AuditSink

	built bool
}

// New returns a Builder loaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Zero-valued required fields
// still fail validation at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing revocation and rate limiting.
// Required in enforcing mode.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the principal store used by login, signup and
// validation. Optional: without one, validation stops at token claims and
// credential flows are unavailable.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithPasswordHasher overrides the default bcrypt hasher.
func (b *Builder) WithPasswordHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the sink behind the async audit dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the metrics block.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles validation latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. The enforcement
// mode decides the backend capabilities here, once; no code path inspects
// the environment afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Enforcement == ModeEnforcing && b.redis == nil {
		return nil, errors.New("enforcing mode requires redis client")
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
		Secret:     cloneBytes(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = password.NewBcrypt(password.Config{})
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:     cfg,
		jwtManager: jm,
		registry:   NewPrefixRegistry(),
		audit:      newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:    NewMetrics(cfg.Metrics),
		hasher:     hasher,
		users:      b.userProvider,
	}

	switch cfg.Enforcement {
	case ModeEnforcing:
		engine.limiter = ratelimit.New(b.redis, ratelimit.Config{
			Namespace: cfg.RateLimit.Namespace,
			OnDegraded: func(op, key string, err error) {
				engine.metricInc(MetricRateLimitDegraded)
				engine.emitDegraded("ratelimit", op, key, err)
			},
		})
		engine.revocations = revocation.New(b.redis, revocation.Config{
			BlacklistPrefix:  cfg.Revocation.BlacklistPrefix,
			MarkerPrefix:     cfg.Revocation.MarkerPrefix,
			MaxTokenLifetime: jm.MaxTTL(),
			OnDegraded: func(op, key string, err error) {
				engine.metricInc(MetricRevocationDegraded)
				engine.emitDegraded("revocation", op, key, err)
			},
		})
	case ModePermissive:
		engine.limiter = openRateLimiter{namespace: cfg.RateLimit.Namespace}
		engine.revocations = openRevocations{}
	}

	// Hashing a throwaway password gives login a comparison target for
	// unknown usernames.
	if dummy, err := hasher.Hash("authplane.dummy.credential"); err == nil {
		engine.dummyHash = dummy
	}

	engine.flowDeps = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}

func (e *Engine) buildFlowDeps() flows.Deps {
	validateFor := func(tokenType jwt.TokenType) flows.ValidateDeps {
		return flows.ValidateDeps{
			ExpectedType:    string(tokenType),
			Parse:           e.parseToken,
			IsRevoked:       e.revocations.IsRevoked,
			UserRevokedAt:   e.revocations.UserRevokedAt,
			LookupPrincipal: e.lookupPrincipal,
		}
	}

	metricInc := func(id int) {
		e.metricInc(MetricID(id))
	}
	emitAudit := func(ctx context.Context, event string, success bool, subject string, cause error) {
		e.emitAudit(ctx, event, success, subject, "", "", cause, nil)
	}

	login := flows.LoginDeps{
		DummyHash:      e.dummyHash,
		VerifyPassword: e.hasher.Verify,
		HashPassword:   e.hasher.Hash,
		IssuePair:      e.issuePair,
		RevokeAll: func(ctx context.Context, subject string) error {
			return e.revocations.RevokeAllForUser(ctx, subject, e.jwtManager.MaxTTL())
		},
		MetricInc: metricInc,
		EmitAudit: emitAudit,
		Metrics: flows.LoginMetrics{
			LoginSuccess:             int(MetricLoginSuccess),
			LoginFailure:             int(MetricLoginFailure),
			SignupSuccess:            int(MetricSignupSuccess),
			SignupDuplicate:          int(MetricSignupDuplicate),
			PasswordChangeSuccess:    int(MetricPasswordChangeSuccess),
			PasswordChangeInvalidOld: int(MetricPasswordChangeInvalidOld),
		},
		Events: flows.LoginEvents{
			LoginSuccess:   auditEventLoginSuccess,
			LoginFailure:   auditEventLoginFailure,
			Signup:         auditEventSignup,
			PasswordChange: auditEventPasswordChange,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			InvalidCredentials: ErrInvalidCredentials,
			AccountExists:      ErrAccountExists,
		},
	}
	if e.users != nil {
		login.GetByUsername = func(ctx context.Context, username string) (*flows.PrincipalRecord, error) {
			user, err := e.users.GetByUsername(ctx, username)
			if err != nil || user == nil {
				return nil, err
			}
			return principalFromUser(user), nil
		}
		login.GetByEmail = func(ctx context.Context, email string) (*flows.PrincipalRecord, error) {
			user, err := e.users.GetByEmail(ctx, email)
			if err != nil || user == nil {
				return nil, err
			}
			return principalFromUser(user), nil
		}
		login.GetByID = func(ctx context.Context, id string) (*flows.PrincipalRecord, error) {
			user, err := e.users.GetByID(ctx, id)
			if err != nil || user == nil {
				return nil, err
			}
			return principalFromUser(user), nil
		}
		login.CreatePrincipal = func(ctx context.Context, in flows.SignupInput, passwordHash string) (*flows.PrincipalRecord, error) {
			user, err := e.users.CreateOne(ctx, CreateUserInput{
				Username:     in.Username,
				Email:        in.Email,
				PasswordHash: passwordHash,
			})
			if err != nil || user == nil {
				return nil, err
			}
			return principalFromUser(user), nil
		}
		login.UpdatePasswordHash = e.users.UpdatePasswordHash
	}

	return flows.Deps{
		ValidateAccess:  validateFor(jwt.TypeAccess),
		ValidateRefresh: validateFor(jwt.TypeRefresh),
		Login:           login,
		Refresh: flows.RefreshDeps{
			Validate:   validateFor(jwt.TypeRefresh),
			IssuePair:  e.issuePair,
			MapFailure: mapValidateFailure,
			MetricInc:  metricInc,
			EmitAudit:  emitAudit,
			Metrics: flows.RefreshMetrics{
				RefreshSuccess: int(MetricRefreshSuccess),
				RefreshFailure: int(MetricRefreshFailure),
			},
			Events: flows.RefreshEvents{
				RefreshSuccess: auditEventRefreshSuccess,
				RefreshFailure: auditEventRefreshFailure,
			},
			EngineNotReady: ErrEngineNotReady,
		},
		Logout: flows.LogoutDeps{
			Parse:           e.parseToken,
			Revoke:          e.revocations.Revoke,
			MapFailure:      mapValidateFailure,
			MetricInc:       metricInc,
			EmitAudit:       emitAudit,
			MetricRevoked:   int(MetricTokenRevoked),
			Events:          flows.LogoutEvents{Logout: auditEventLogout},
			EngineNotReady:  ErrEngineNotReady,
			ErrInvalidToken: ErrTokenInvalid,
		},
	}
}
