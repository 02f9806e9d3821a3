// Package middleware guards the terminal's local HTTP surface.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kiwari-pos/terminal/internal/auth"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// RequireSession rejects requests until the terminal has logged in upstream.
// The token func supplies the current upstream access token; its claims are
// parsed into the request context for handlers that care who is operating
// the register.
func RequireSession(token func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := token()
			if t == "" {
				writeError(w, http.StatusUnauthorized, "not logged in")
				return
			}
			claims, err := auth.ParseClaims(t)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid session token")
				return
			}
			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUnlocked blocks the surface while the register lock screen is up.
func RequireUnlocked(locked func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if locked() {
				writeError(w, http.StatusLocked, "terminal is locked")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the operator claims stored by RequireSession,
// or nil when the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
