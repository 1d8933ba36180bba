package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Principal identifies the caller behind an API key — every request in this
// system operates on behalf of one user, scoping all memory access.
type Principal struct {
	UserID string
}

func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// KeyResolver maps a bearer API key to the user it authenticates.
// Returning ok=false rejects the request with 401.
type KeyResolver func(apiKey string) (userID string, ok bool)

// APIKeyAuth requires "Authorization: Bearer <key>" and resolves the key to
// a user via resolve, attaching the result to the request context.
func APIKeyAuth(resolve KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			userID, ok := resolve(parts[1])
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey, &Principal{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
