package middleware

import (
	"context"
	"net/http"
	"strings"

	authplane "github.com/mwheeler712/authplane"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validation result injected by Bearer.
func AuthResultFromContext(ctx context.Context) (*authplane.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authplane.AuthResult)
	return res, ok
}

// Bearer validates the Authorization header as an access token and injects
// the result, the subject, and the client IP into the request context.
func Bearer(engine *authplane.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authplane.WithClientIP(r.Context(), clientIP(r))
			res, err := engine.ValidateAccess(ctx, token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = authplane.WithSubject(ctx, res.Subject)
			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
