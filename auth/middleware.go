package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rosieluu/simple-notes-app/core"
)

type contextKey int

// userIDKey carries the authenticated user id in a request context.
const userIDKey contextKey = 0

// Middleware returns an http.Handler wrapper that rejects requests without a
// valid session token and stores the authenticated user id in the request
// context.
//
// The token is read from the Authorization header ("Bearer <token>"), then
// the "token" cookie, then the "token" query parameter. The query parameter
// exists for websocket clients, which cannot set headers from the browser.
func Middleware(jwtService *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				writeUnauthorized(w)
				return
			}

			userID, err := jwtService.ValidateToken(tokenStr)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest extracts the session token from a request, or returns ""
// when none is present.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// GetUserIDFromContext returns the authenticated user id stored by
// Middleware, or "" when the request was not authenticated.
func GetUserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// WithUserID returns a context carrying the given user id. Used by tests and
// by internal tasks acting on a user's behalf.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func writeUnauthorized(w http.ResponseWriter) {
	appErr := core.ErrUnauthenticated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(core.HTTPStatus(appErr))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": appErr,
	})
}
