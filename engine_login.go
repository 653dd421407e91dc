package authplane

import (
	"context"

	"github.com/mwheeler712/authplane/internal/flows"
)

// Login verifies credentials against the user provider and issues a token
// pair. Unknown username and wrong password return the same error.
func (e *Engine) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunLogin(ctx, username, password, e.flowDeps.Login)
	if err != nil {
		return nil, err
	}
	return pairFromResult(result), nil
}

// Signup creates a principal through the user provider and issues its first
// token pair. Username or email collisions return ErrAccountExists.
func (e *Engine) Signup(ctx context.Context, username, email, password string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunSignup(ctx, flows.SignupInput{
		Username: username,
		Email:    email,
		Password: password,
	}, e.flowDeps.Login)
	if err != nil {
		return nil, err
	}
	return pairFromResult(result), nil
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is fully validated, including revocation state.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	result, err := flows.RunRefresh(ctx, refreshToken, e.flowDeps.Refresh)
	if err != nil {
		return nil, err
	}
	return pairFromResult(result), nil
}

// ChangePassword verifies the old password, stores the new hash, and
// mass-revokes every outstanding token for the subject.
func (e *Engine) ChangePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	err := flows.RunChangePassword(ctx, subject, oldPassword, newPassword, e.flowDeps.Login)
	if err == nil {
		e.metricInc(MetricUserRevocations)
	}
	return err
}

func pairFromResult(r *flows.PairResult) *TokenPair {
	if r == nil {
		return nil
	}
	return &TokenPair{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Subject:      r.Subject,
	}
}
