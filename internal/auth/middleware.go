package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/conduit/internal/metrics"
)

// contextKey is unexported so no other package can read or overwrite the
// session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

const unauthorizedBody = `{"error":"unauthorized","message":"valid authentication required"}`

// RequireAuth guards a route: the request proceeds only when the
// Authorization header resolves to a valid Session.
//
// Authorization is opt-in per route. Public routes (article listing, tags,
// profiles) never mount this middleware.
//
// The specific failure (missing header, bad scheme, expired, bad signature)
// is logged and counted but never echoed to the client.
func RequireAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ResolveSession(r.Header, tokens)
			if err != nil {
				reason := failureReason(err)
				metrics.RecordAuthFailure(reason)
				logger.Warn("request rejected",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", Scheme)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(unauthorizedBody))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// OptionalAuth attaches a Session when the request carries a valid token and
// otherwise lets the request through anonymously. Used where logged-in users
// see extra data (favorited, following) but anonymous reads are allowed.
//
// A present-but-invalid header is logged at debug level and ignored.
func OptionalAuth(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := ResolveSession(r.Header, tokens)
			if err == nil {
				r = r.WithContext(WithSession(r.Context(), session))
			} else if reason := failureReason(err); reason != "missing_header" {
				logger.Debug("ignoring invalid credentials on public route",
					slog.String("reason", reason),
					slog.String("path", r.URL.Path),
				)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the Session set by RequireAuth or OptionalAuth.
// ok is false for anonymous requests.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// ViewerID returns the authenticated user's ID, or 0 for anonymous requests.
func ViewerID(ctx context.Context) int64 {
	s, _ := SessionFromContext(ctx)
	return s.UserID
}
