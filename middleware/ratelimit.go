package middleware

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	authplane "github.com/mwheeler712/authplane"
)

// RateLimit enforces the given policy on every request. Quota state is
// reported in X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// headers; denied requests get a 429. Run after Bearer when the policy is
// subject-scoped.
func RateLimit(engine *authplane.Engine, policy authplane.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := r.Context()
			if authplane.ClientIPFromContext(ctx) == "" {
				ctx = authplane.WithClientIP(ctx, clientIP(r))
			}

			decision, err := engine.Allow(ctx, policy)
			switch {
			case err == nil:
				writeQuotaHeaders(w, decision)
			case errors.Is(err, authplane.ErrRateLimited):
				writeQuotaHeaders(w, decision)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			default:
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeQuotaHeaders(w http.ResponseWriter, d authplane.RateLimitDecision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetTime, 10))
}

// clientIP resolves the caller address, preferring proxy headers over the
// socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
