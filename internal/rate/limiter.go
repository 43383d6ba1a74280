package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds throttle tuning parameters.
type Config struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// hitScript increments a fixed-window counter and starts the window on the
// first hit, in one round trip.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Limiter counts failed logins per email and, optionally, per client IP.
// A subject is throttled once any of its counters reaches the budget; the
// window restarts when the first counted failure expires.
type Limiter struct {
	redis  redis.UniversalClient
	budget int
	window time.Duration
	perIP  bool
}

// New creates a [Limiter] backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  client,
		budget: cfg.MaxLoginAttempts,
		window: cfg.LoginCooldownDuration,
		perIP:  cfg.EnableIPThrottle,
	}
}

func (l *Limiter) keys(email, ip string) []string {
	keys := []string{loginEmailKey(email)}
	if l.perIP && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}
	return keys
}

// CheckLogin reports ErrRateLimited when the email or IP has spent its
// failed-login budget for the current window. It does not count anything.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l.budget <= 0 {
		return nil
	}

	keys := l.keys(email, ip)
	cmds := make([]*redis.StringCmd, len(keys))
	_, err := l.redis.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = p.Get(ctx, key)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return unavailable(err)
	}

	for _, cmd := range cmds {
		count, err := cmd.Int64()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			return unavailable(err)
		case count >= int64(l.budget):
			return ErrRateLimited
		}
	}
	return nil
}

// IncrementLogin records one failed login against the email and IP.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	for _, key := range l.keys(email, ip) {
		if _, err := l.hit(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the email counter after a successful login. The IP
// counter is left alone so one good account cannot launder an IP.
func (l *Limiter) ResetLogin(ctx context.Context, email string) error {
	if err := l.redis.Del(ctx, loginEmailKey(email)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// LoginAttempts returns the failures counted for email in the current
// window.
func (l *Limiter) LoginAttempts(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, loginEmailKey(email)).Int()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, unavailable(err)
	case count < 0:
		return 0, nil
	}
	return count, nil
}

func (l *Limiter) hit(ctx context.Context, key string) (int64, error) {
	count, err := hitScript.Run(ctx, l.redis, []string{key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return 0, unavailable(err)
	}
	return count, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
}
