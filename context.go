package authplane

import "context"

type clientIPContextKey struct{}
type subjectContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine uses it
// for IP-scoped rate limit keys and audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithSubject attaches an authenticated subject to ctx for subject-scoped
// rate limit keys. The Bearer middleware sets it after validation.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// ClientIPFromContext returns the IP set by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// SubjectFromContext returns the subject set by WithSubject, or "".
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	subject, _ := ctx.Value(subjectContextKey{}).(string)
	return subject
}
