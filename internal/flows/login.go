package flows

import (
	"context"
)

// PairResult is the flow-local token pair response shape.
type PairResult struct {
	AccessToken  string
	RefreshToken string
	Subject      string
}

// SignupInput carries the fields needed to create a principal.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginMetrics carries metric IDs used by credential flows.
type LoginMetrics struct {
	LoginSuccess             int
	LoginFailure             int
	SignupSuccess            int
	SignupDuplicate          int
	PasswordChangeSuccess    int
	PasswordChangeInvalidOld int
}

// LoginEvents carries audit event names used by credential flows.
type LoginEvents struct {
	LoginSuccess   string
	LoginFailure   string
	Signup         string
	PasswordChange string
}

// LoginErrors carries host-level sentinel errors used by credential flows.
type LoginErrors struct {
	EngineNotReady     error
	InvalidCredentials error
	AccountExists      error
}

// LoginDeps captures credential flow dependencies. DummyHash is a hash of a
// throwaway password; login verifies against it when the principal does not
// exist so both outcomes cost one hash comparison.
type LoginDeps struct {
	DummyHash string

	GetByUsername      func(ctx context.Context, username string) (*PrincipalRecord, error)
	GetByEmail         func(ctx context.Context, email string) (*PrincipalRecord, error)
	GetByID            func(ctx context.Context, id string) (*PrincipalRecord, error)
	CreatePrincipal    func(ctx context.Context, in SignupInput, passwordHash string) (*PrincipalRecord, error)
	UpdatePasswordHash func(ctx context.Context, id, passwordHash string) error

	VerifyPassword func(password, hash string) bool
	HashPassword   func(password string) (string, error)

	IssuePair func(ctx context.Context, subject string) (access, refresh string, err error)
	RevokeAll func(ctx context.Context, subject string) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, subject string, cause error)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

func (deps *LoginDeps) fillDefaults() {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, error) {}
	}
}

// RunLogin verifies credentials and issues a token pair. An unknown username
// and a wrong password are indistinguishable to the caller, in timing as
// well as in the returned error.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) (*PairResult, error) {
	deps.fillDefaults()
	if deps.GetByUsername == nil || deps.VerifyPassword == nil || deps.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	user, err := deps.GetByUsername(ctx, username)
	if err != nil || user == nil {
		deps.VerifyPassword(password, deps.DummyHash)
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", deps.Errors.InvalidCredentials)
		return nil, deps.Errors.InvalidCredentials
	}

	if !deps.VerifyPassword(password, user.PasswordHash) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, deps.Errors.InvalidCredentials)
		return nil, deps.Errors.InvalidCredentials
	}

	access, refresh, err := deps.IssuePair(ctx, user.ID)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, user.ID, err)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, user.ID, nil)
	return &PairResult{AccessToken: access, RefreshToken: refresh, Subject: user.ID}, nil
}

// RunSignup creates a principal and issues its first token pair. A taken
// username or email reports the same duplicate error so the flow does not
// disclose which field collided.
func RunSignup(ctx context.Context, in SignupInput, deps LoginDeps) (*PairResult, error) {
	deps.fillDefaults()
	if deps.GetByUsername == nil || deps.GetByEmail == nil || deps.CreatePrincipal == nil ||
		deps.HashPassword == nil || deps.IssuePair == nil {
		return nil, deps.Errors.EngineNotReady
	}

	// A failed lookup is not a free pass; creating the principal anyway
	// could double-register behind a flaky provider.
	existing, err := deps.GetByUsername(ctx, in.Username)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", err)
		return nil, err
	}
	if existing != nil {
		deps.MetricInc(deps.Metrics.SignupDuplicate)
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", deps.Errors.AccountExists)
		return nil, deps.Errors.AccountExists
	}
	existing, err = deps.GetByEmail(ctx, in.Email)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", err)
		return nil, err
	}
	if existing != nil {
		deps.MetricInc(deps.Metrics.SignupDuplicate)
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", deps.Errors.AccountExists)
		return nil, deps.Errors.AccountExists
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := deps.CreatePrincipal(ctx, in, hash)
	if err != nil {
		deps.EmitAudit(ctx, deps.Events.Signup, false, "", err)
		return nil, err
	}

	access, refresh, err := deps.IssuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	deps.MetricInc(deps.Metrics.SignupSuccess)
	deps.EmitAudit(ctx, deps.Events.Signup, true, user.ID, nil)
	return &PairResult{AccessToken: access, RefreshToken: refresh, Subject: user.ID}, nil
}

// RunChangePassword rotates a principal's password and mass-revokes every
// outstanding token for the subject. Sessions on other devices die with the
// old password.
func RunChangePassword(ctx context.Context, subject, oldPassword, newPassword string, deps LoginDeps) error {
	deps.fillDefaults()
	if deps.GetByID == nil || deps.VerifyPassword == nil || deps.HashPassword == nil ||
		deps.UpdatePasswordHash == nil || deps.RevokeAll == nil {
		return deps.Errors.EngineNotReady
	}

	user, err := deps.GetByID(ctx, subject)
	if err != nil || user == nil {
		deps.MetricInc(deps.Metrics.PasswordChangeInvalidOld)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, subject, deps.Errors.InvalidCredentials)
		return deps.Errors.InvalidCredentials
	}
	if !deps.VerifyPassword(oldPassword, user.PasswordHash) {
		deps.MetricInc(deps.Metrics.PasswordChangeInvalidOld)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, subject, deps.Errors.InvalidCredentials)
		return deps.Errors.InvalidCredentials
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := deps.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, subject, err)
		return err
	}
	if err := deps.RevokeAll(ctx, user.ID); err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, subject, err)
		return err
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, subject, nil)
	return nil
}
