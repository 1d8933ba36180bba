package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsUpToBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
}

func TestRateLimiter_TracksKeysIndependently(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"))
	assert.False(t, rl.Allow("u1"))
}

func TestRateLimit_BlocksOverBurstWithTooManyRequests(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimit(1, 1)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), principalContextKey, &Principal{UserID: "u1"})
	req = req.WithContext(ctx)

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}
