package security

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(limit int) (*RateLimiter, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRateLimiter(db, limit, time.Minute, logger), mock
}

func TestRateLimiter_FirstRequestSetsWindow(t *testing.T) {
	limiter, mock := newTestLimiter(3)
	key := "ratelimit:allocation:user:p1"

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	ok, err := limiter.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	limiter, mock := newTestLimiter(3)
	key := "ratelimit:allocation:user:p1"

	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectIncr(key).SetVal(4)

	ok, err := limiter.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisError(t *testing.T) {
	limiter, mock := newTestLimiter(3)
	key := "ratelimit:allocation:ip:127.0.0.1"

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

	ok, err := limiter.Allow(context.Background(), key)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", false},
		{"Googlebot/2.1", true},
		{"SomeCrawler 1.0", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSuspiciousUserAgent(tt.ua), tt.ua)
	}
}
