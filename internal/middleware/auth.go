// Package middleware provides HTTP middleware: request tracing, access
// logging, metrics instrumentation, rate limiting, and the two credential
// gates.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/exsettle/settlementd/internal/auth"
)

const apiKeyHeader = "x-api-key"

// RequireAPIKey gates a route behind the shared-secret check. A missing or
// wrong key both yield 401; the two cases are told apart only in the log.
func RequireAPIKey(verifier *auth.APIKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := verifier.Verify(r.Header.Get(apiKeyHeader)); err != nil {
				slog.Warn("API key rejected",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"reason", err,
				)
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "Invalid API Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJWT gates a route behind the signed-token check. A missing token
// yields 401; a token that is present but invalid or expired yields 403.
// On success the decoded claims are attached to the request context.
func RequireJWT(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized", "Token required")
				return
			}

			claims, err := jwtManager.Validate(token)
			if err != nil {
				slog.Warn("Token rejected",
					"request_id", GetRequestID(r.Context()),
					"path", r.URL.Path,
					"reason", err,
				)
				writeAuthError(w, http.StatusForbidden, "Forbidden", "Invalid Token")
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. An absent or malformed header counts as a missing token.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
