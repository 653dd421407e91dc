package flows

import (
	"context"
)

// RefreshMetrics carries metric IDs used by the refresh flow.
type RefreshMetrics struct {
	RefreshSuccess int
	RefreshFailure int
}

// RefreshEvents carries audit event names used by the refresh flow.
type RefreshEvents struct {
	RefreshSuccess string
	RefreshFailure string
}

// RefreshDeps captures refresh flow dependencies. Validate is the full
// refresh-token validation pipeline; MapFailure converts its failure kind to
// the host sentinel so the flow stays error-agnostic.
type RefreshDeps struct {
	Validate ValidateDeps

	IssuePair  func(ctx context.Context, subject string) (access, refresh string, err error)
	MapFailure func(kind ValidateFailureKind, cause error) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, subject string, cause error)

	Metrics        RefreshMetrics
	Events         RefreshEvents
	EngineNotReady error
}

// RunRefresh exchanges a live refresh token for a new pair. The presented
// token passes the same revocation checks as any other token; it is not
// blacklisted on use, so a pair can be re-minted until it expires or the
// subject is revoked.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) (*PairResult, error) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error) {}
	}
	if deps.IssuePair == nil || deps.MapFailure == nil {
		return nil, deps.EngineNotReady
	}

	result := RunValidate(ctx, refreshToken, deps.Validate)
	if result.Kind != ValidateOK {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		err := deps.MapFailure(result.Kind, result.Cause)
		subject := ""
		if result.Token != nil {
			subject = result.Token.Subject
		}
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, subject, err)
		return nil, err
	}

	subject := result.Token.Subject
	access, refresh, err := deps.IssuePair(ctx, subject)
	if err != nil {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshFailure, false, subject, err)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, subject, nil)
	return &PairResult{AccessToken: access, RefreshToken: refresh, Subject: subject}, nil
}
