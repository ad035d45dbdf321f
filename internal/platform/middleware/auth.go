package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"rentmarket/pkg/requestcontext"
)

// Identity is what the middleware needs from a verified provider token.
type Identity struct {
	SubjectID string
	Email     string
}

// IdentityVerifier validates a bearer token minted by the identity provider.
type IdentityVerifier interface {
	VerifyIdentity(token string) (*Identity, error)
}

const bearerPrefix = "Bearer "

// BearerToken extracts the token from an Authorization header, or "".
func BearerToken(r *http.Request) string {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// Authenticate attaches the caller's identity when a bearer token is present.
// Requests without a token continue as guests; invalid tokens are rejected.
func Authenticate(verifier IdentityVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identity, err := verifier.VerifyIdentity(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithIdentity(ctx, identity.SubjectID, identity.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that Authenticate left as guests.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.SubjectID(ctx) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID returns the authenticated subject id, or "" for guests.
func GetUserID(r *http.Request) string {
	return requestcontext.SubjectID(r.Context())
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
