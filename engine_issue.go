package authplane

import "context"

// IssueAccess mints an access token for subject, outside any credential
// flow. Hosts use it for service principals and tests.
func (e *Engine) IssueAccess(_ context.Context, subject string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	token, _, err := e.jwtManager.IssueAccess(subject)
	return token, err
}

// IssueRefresh mints a refresh token for subject.
func (e *Engine) IssueRefresh(_ context.Context, subject string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	token, _, err := e.jwtManager.IssueRefresh(subject)
	return token, err
}

// IssuePair mints a fresh access/refresh pair for subject.
func (e *Engine) IssuePair(ctx context.Context, subject string) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	access, refresh, err := e.issuePair(ctx, subject)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, Subject: subject}, nil
}
