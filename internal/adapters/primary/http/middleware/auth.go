package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// SessionClaimsKey is the key used to store dataset session claims in the
// request context.
const SessionClaimsKey contextKey = "sessionClaims"

// SessionMiddleware validates the dataset session token from the
// Authorization header. Every analytics route runs behind it; the claims
// carry the only dataset the caller may query.
func SessionMiddleware(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Authorization header format must be Bearer {token}", http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]
			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Add the claims to the context for downstream handlers to use.
			ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionDatasetID extracts the dataset ID from the validated session claims.
// The boolean is false when the middleware did not run on this route.
func SessionDatasetID(ctx context.Context) (uuid.UUID, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(*auth.Claims)
	if !ok {
		return uuid.Nil, false
	}
	return claims.DatasetID, true
}
