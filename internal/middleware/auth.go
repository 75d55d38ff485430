package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"adespota/internal/domain"
)

type sessionKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// Authenticate resolves a bearer token into a session on the request context.
// Requests without an Authorization header pass through anonymously; a header
// that does not resolve is rejected with 401.
func Authenticate(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				writeError(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			sess, err := a.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				var authErr *domain.AuthError
				if errors.As(err, &authErr) {
					logger.Debug("token rejected", slog.String("reason", authErr.Reason))
					writeError(w, http.StatusUnauthorized, authErr.Reason)
					return
				}
				logger.Error("authenticate failed", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).Authenticated() {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, sess *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns nil for anonymous requests.
func SessionFromContext(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return sess
}
