package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"rentmarket/internal/platform/logger"
	"rentmarket/internal/platform/metrics"
	"rentmarket/pkg/requestcontext"
)

func serve(h http.Handler, method, subject, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/messages", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "test")
	if subject != "" {
		ctx = requestcontext.WithIdentity(ctx, subject, subject+"@example.com")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func TestWritesMiddleware(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Writes(NewInMemory(), 2, time.Minute, m, logger.Discard())(ok)

	t.Run("reads are never limited", func(t *testing.T) {
		for range 5 {
			assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "ana", "10.0.0.1").Code)
		}
	})

	t.Run("writes are limited per subject", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "ana", "10.0.0.1").Code)
		rr := serve(h, http.MethodPatch, "ana", "10.0.0.2")
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = serve(h, http.MethodDelete, "ana", "10.0.0.3")
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")
		assert.Equal(t, 1.0, promtest.ToFloat64(m.RateLimited.WithLabelValues("subject")))
	})

	t.Run("guests are keyed by address", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "", "10.0.0.1").Code)
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "", "10.0.0.1").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodPost, "", "10.0.0.1").Code)
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "", "10.0.0.9").Code)
	})
}

type brokenStore struct{}

func (brokenStore) Allow(context.Context, string, int, time.Duration) (Result, error) {
	return Result{}, errors.New("redis down")
}

func TestWritesFailOpen(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Writes(brokenStore{}, 1, time.Minute, nil, logger.Discard())(ok)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "ana", "10.0.0.1").Code)
}
