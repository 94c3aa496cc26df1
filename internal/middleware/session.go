package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/request"
)

// TokenVerifier resolves a bearer token to a session ID
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Session authenticates the bearer session token and attaches the session
// ID to the request context. When required is false, requests without an
// Authorization header pass through without a session; a present but
// invalid token is still rejected.
func Session(verifier TokenVerifier, required bool, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if required {
					respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing Authorization header", logger)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid Authorization header format", logger)
				return
			}

			id, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Debug("session_token_rejected",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
				)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired session token", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithSession(r.Context(), id)))
		})
	}
}
