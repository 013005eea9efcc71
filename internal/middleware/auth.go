package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/bryanwahyu/seoscan/internal/infra/session"
)

type contextKey string

const userKey contextKey = "user"

// SessionCookie carries the session token.
const SessionCookie = "jwt"

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

// SessionParser validates a session token.
type SessionParser interface {
	Parse(token string) (*session.Claims, error)
}

// RequireSession rejects requests without a valid session. The token comes
// from the jwt cookie or, failing that, an Authorization: Bearer header.
func RequireSession(parser SessionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := parser.Parse(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := WithUser(r.Context(), Principal{UserID: claims.UserID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// WithUser stores the principal in ctx.
func WithUser(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, userKey, p)
}

// UserFromContext extracts the principal set by RequireSession.
func UserFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(userKey).(Principal)
	return p, ok && p.UserID != ""
}
