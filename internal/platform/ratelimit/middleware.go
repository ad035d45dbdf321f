package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"rentmarket/internal/platform/metrics"
	dErrors "rentmarket/pkg/domain-errors"
	"rentmarket/pkg/platform/httputil"
	"rentmarket/pkg/requestcontext"
)

// Writes limits POST, PUT, PATCH and DELETE requests per caller: the
// authenticated subject when present, the client IP otherwise. Reads pass
// through. Store failures fail open.
func Writes(store Store, limit int, window time.Duration, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key, keyType := callerKey(r)

			result, err := store.Allow(ctx, key, limit, window)
			if err != nil {
				logger.ErrorContext(ctx, "failed to check rate limit", "error", err, "key_type", keyType)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				m.IncRateLimited(keyType)
				logger.WarnContext(ctx, "rate limit exceeded",
					"key_type", keyType,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(time.Now())))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func callerKey(r *http.Request) (string, string) {
	ctx := r.Context()
	if sub := requestcontext.SubjectID(ctx); sub != "" {
		return "sub:" + sub, "subject"
	}
	return "ip:" + requestcontext.ClientIP(ctx), "ip"
}
