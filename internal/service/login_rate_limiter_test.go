package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestLoginRateLimiterInMemory(t *testing.T) {
	limiter := NewLoginRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("fer@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow("fer@example.com") {
		t.Fatalf("expected fourth attempt blocked")
	}
	// Otra clave no comparte la cuota.
	if !limiter.Allow("otra@example.com") {
		t.Fatalf("expected independent quota per key")
	}
}

type mockRedisEvaler struct {
	count int64
	err   error
	calls int
}

func (m *mockRedisEvaler) Eval(_ context.Context, _ string, _ []string, _ ...interface{}) *redis.Cmd {
	m.calls++
	if m.err != nil {
		return redis.NewCmdResult(nil, m.err)
	}
	m.count++
	return redis.NewCmdResult(m.count, nil)
}

func TestRedisLoginRateLimiter(t *testing.T) {
	t.Run("bloquea al superar el maximo", func(t *testing.T) {
		evaler := &mockRedisEvaler{}
		limiter := &redisLoginRateLimiter{client: evaler, window: time.Minute, max: 2, prefix: "login:rl:"}

		if !limiter.Allow("fer@example.com") || !limiter.Allow("fer@example.com") {
			t.Fatalf("expected first two attempts allowed")
		}
		if limiter.Allow("fer@example.com") {
			t.Fatalf("expected third attempt blocked")
		}
		if evaler.calls != 3 {
			t.Fatalf("expected 3 redis calls, got %d", evaler.calls)
		}
	})

	t.Run("si redis falla deja pasar", func(t *testing.T) {
		evaler := &mockRedisEvaler{err: errors.New("redis down")}
		limiter := &redisLoginRateLimiter{client: evaler, window: time.Minute, max: 1, prefix: "login:rl:"}

		if !limiter.Allow("fer@example.com") {
			t.Fatalf("expected fail-open on redis error")
		}
	})

	t.Run("clave vacia se rechaza", func(t *testing.T) {
		evaler := &mockRedisEvaler{}
		limiter := &redisLoginRateLimiter{client: evaler, window: time.Minute, max: 1, prefix: "login:rl:"}

		if limiter.Allow("   ") {
			t.Fatalf("expected empty key rejected")
		}
		if evaler.calls != 0 {
			t.Fatalf("expected no redis call for empty key")
		}
	})
}
