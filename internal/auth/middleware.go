package auth

import (
	"context"
	"net/http"
	"strings"

	"taskflow-backend/internal/analytics"
	"taskflow-backend/internal/respond"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

// Wrap rejects requests without a valid session before next runs.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := m.Identify(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), claims.Subject)))
	}
}

// Identify reads the session from the auth cookie or a bearer token.
func (m Middleware) Identify(r *http.Request) (*Claims, bool) {
	tokenString := ""
	if c, err := r.Cookie(CookieName); err == nil {
		tokenString = c.Value
	}
	if h := r.Header.Get("Authorization"); tokenString == "" && strings.HasPrefix(h, "Bearer ") {
		tokenString = strings.TrimPrefix(h, "Bearer ")
	}
	if tokenString == "" {
		return nil, false
	}

	claims, err := ParseToken(m.secret, tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// WithUserID marks ctx as authenticated for userID, also for analytics.
func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return analytics.WithUserID(ctx, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(userIDKey).(string)
	return uid, ok && uid != ""
}
