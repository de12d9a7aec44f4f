package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

type memoryCounterStore struct {
	counts map[string]int64
}

func newMemoryCounterStore() *memoryCounterStore {
	return &memoryCounterStore{counts: map[string]int64{}}
}

func (s *memoryCounterStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.counts[key]++
	return s.counts[key], nil
}

func newLimitedRouter(policy PublicRateLimitPolicy, store RateLimiterStore) http.Handler {
	r := chi.NewRouter()
	r.With(PublicRateLimit(policy, store, nil)).Get("/proofs/token/{token}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestPublicRateLimitBlocksAfterIPLimit(t *testing.T) {
	policy := NewPublicRateLimitPolicy("proof", time.Minute, 2, 0)
	handler := newLimitedRouter(policy, newMemoryCounterStore())

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/proofs/token/abc", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200 got %d", i+1, resp.Code)
		}
	}

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/proofs/token/abc", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}

	var payload types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("unexpected code %s", payload.Error.Code)
	}
}

func TestPublicRateLimitTracksTokensIndependently(t *testing.T) {
	policy := NewPublicRateLimitPolicy("proof", time.Minute, 0, 1)
	handler := newLimitedRouter(policy, newMemoryCounterStore())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/proofs/token/abc", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", first.Code)
	}

	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, httptest.NewRequest(http.MethodGet, "/proofs/token/abc", nil))
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", blocked.Code)
	}

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/proofs/token/xyz", nil))
	if other.Code != http.StatusOK {
		t.Fatalf("other token should not be throttled, got %d", other.Code)
	}
}

func TestPublicRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewPublicRateLimitPolicy("proof", 0, 0, 0)
	handler := newLimitedRouter(policy, newMemoryCounterStore())

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/proofs/token/abc", nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
}
