package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, New(client, cfg)
}

func TestLoginThrottleWindow(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxLoginAttempts: 3, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckLogin(ctx, "Cook@Example.com", ""); err != nil {
			t.Fatalf("attempt %d unexpectedly limited: %v", i, err)
		}
		if err := l.IncrementLogin(ctx, "cook@example.com", ""); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := l.CheckLogin(ctx, "cook@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := l.CheckLogin(ctx, "cook@example.com", ""); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestLoginThrottleIPAndReset(t *testing.T) {
	_, l := newTestLimiter(t, Config{EnableIPThrottle: true, MaxLoginAttempts: 2, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "a@example.com", "10.0.0.1")
	_ = l.IncrementLogin(ctx, "b@example.com", "10.0.0.1")

	if err := l.CheckLogin(ctx, "c@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP throttle, got %v", err)
	}

	if err := l.ResetLogin(ctx, "a@example.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.LoginAttempts(ctx, "a@example.com"); n != 0 {
		t.Fatalf("expected zero attempts after reset, got %d", n)
	}
}

func TestIncrementStartsWindowOnce(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxLoginAttempts: 5, LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	_ = l.IncrementLogin(ctx, "cook@example.com", "")
	mr.FastForward(40 * time.Second)
	_ = l.IncrementLogin(ctx, "cook@example.com", "")

	if ttl := mr.TTL(loginEmailKey("cook@example.com")); ttl > 20*time.Second {
		t.Fatalf("second failure must not extend the window, ttl=%s", ttl)
	}
	if n, _ := l.LoginAttempts(ctx, "cook@example.com"); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestZeroBudgetNeverThrottles(t *testing.T) {
	_, l := newTestLimiter(t, Config{LoginCooldownDuration: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = l.IncrementLogin(ctx, "cook@example.com", "")
	}
	if err := l.CheckLogin(ctx, "cook@example.com", ""); err != nil {
		t.Fatalf("expected no throttle without a budget, got %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxLoginAttempts: 3, LoginCooldownDuration: time.Minute})
	mr.Close()

	if err := l.IncrementLogin(context.Background(), "a@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.CheckLogin(context.Background(), "a@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from check, got %v", err)
	}
}
