package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/cbodonnell/wagervault/pkg/auth/providers"
	"github.com/cbodonnell/wagervault/pkg/log"
)

type ContextKey int

const (
	// IdentityContextKey is the key used to store the caller identity in the request context
	IdentityContextKey ContextKey = iota
)

// NewAuthMiddleware verifies the bearer token and stores the caller
// identity in the request context.
func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Error("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Error("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, claims.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerIdentity returns the verified identity stored by the auth middleware.
func CallerIdentity(r *http.Request) (string, bool) {
	identity, ok := r.Context().Value(IdentityContextKey).(string)
	return identity, ok
}

// parseBearerToken parses the bearer token from the Authorization header
func parseBearerToken(r *http.Request) (string, error) {
	// Get the Authorization header value
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("authorization header is missing")
	}

	// Check if the Authorization header has the Bearer scheme
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	// Return the token part
	return parts[1], nil
}
