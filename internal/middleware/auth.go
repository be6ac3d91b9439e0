package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"upsell-server/internal/auth"
)

type contextKey int

const claimsKey contextKey = iota

// ClaimsFromContext returns the verified session claims attached by
// Auth, or nil when the request did not pass through it.
func ClaimsFromContext(ctx context.Context) *auth.SessionClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.SessionClaims)
	return claims
}

// ContextWithClaims attaches claims the way Auth does. For handler
// tests that bypass the middleware.
func ContextWithClaims(ctx context.Context, claims *auth.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// Auth returns middleware that requires a valid platform session token
// in the Authorization header. Verified claims are attached to the
// request context for handlers to consume.
func Auth(verifier *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("session token rejected",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				unauthorized(w, "invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
