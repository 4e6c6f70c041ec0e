package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UserIDHeader carries the caller's user id. It is set by the gateway in
// front of this service after it has authenticated the request.
const UserIDHeader = "X-User-ID"

type contextKey string

const userIDKey contextKey = "userID"

// IdentityMiddleware copies the caller id from UserIDHeader into the request
// context. Requests without the header continue anonymously.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" {
			r = r.WithContext(ContextWithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

// ContextWithUserID returns a copy of ctx carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller id, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
