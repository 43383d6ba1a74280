// Command recipeauth-loadtest measures login, validation and refresh
// rotation throughput of an in-process engine.
//
// Users live in a MemoryUserStore. Token revocation runs against redis: the
// address from -redis or REDIS_ADDR, or an embedded miniredis.
package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/password"
	"github.com/MrEthical07/recipeAuth/permission"
)

const loadPassword = "Tr0ub4dor&Xyz"

type userState struct {
	email   string
	mu      sync.Mutex
	access  string
	refresh string
}

func main() {
	var (
		users       = flag.Int("users", 1000, "number of users to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "operations per validate and refresh phase")
		logins      = flag.Int("logins", 2000, "operations in the login phase")
		cost        = flag.Int("cost", bcrypt.MinCost, "bcrypt cost of seeded passwords")
		redisAddr   = flag.String("redis", "", "redis host:port (default $REDIS_ADDR, else an embedded miniredis)")
		revocation  = flag.Bool("revocation", true, "enable the token deny-list")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 || *logins <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, ops, and logins must be > 0")
		os.Exit(2)
	}

	client, cleanup, err := connectRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	store := recipeAuth.NewMemoryUserStore()
	states, err := seedUsers(store, *users, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	cfg := recipeAuth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.JWT.RefreshSecret = []byte(strings.Repeat("r", 32))
	cfg.Password.Cost = *cost
	cfg.Password.RehashOnLogin = false
	cfg.Revocation.Enabled = *revocation
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := recipeAuth.New().WithConfig(cfg).WithUserStore(store).WithRedis(client).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	loginStats := runPhase(*logins, *concurrency, func(r *rand.Rand, _ int) error {
		state := states[r.Intn(len(states))]
		res, err := engine.Authenticate(ctx, recipeAuth.Credentials{Email: state.email, Password: loadPassword})
		if err != nil {
			return err
		}
		state.mu.Lock()
		state.access, state.refresh = res.AccessToken, res.RefreshToken
		state.mu.Unlock()
		return nil
	})

	// Users the login phase never picked still need tokens.
	for _, state := range states {
		if state.access != "" {
			continue
		}
		res, err := engine.Authenticate(ctx, recipeAuth.Credentials{Email: state.email, Password: loadPassword})
		if err != nil {
			fmt.Fprintf(os.Stderr, "login %s: %v\n", state.email, err)
			os.Exit(1)
		}
		state.access, state.refresh = res.AccessToken, res.RefreshToken
	}

	validateStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		state := states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.access
		state.mu.Unlock()
		if engine.ValidateAccessToken(ctx, token) == nil {
			return recipeAuth.ErrUnauthorized
		}
		return nil
	})

	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) error {
		state := states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()
		res, err := engine.Refresh(ctx, state.refresh)
		if err != nil {
			return err
		}
		state.access, state.refresh = res.AccessToken, res.RefreshToken
		return nil
	})

	fmt.Println()
	printStats("login", loginStats)
	printStats("validate", validateStats)
	printStats("refresh", refreshStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: login_success=%d refresh_success=%d revoked_rejected=%d\n",
		snap.Counters[recipeAuth.MetricLoginSuccess],
		snap.Counters[recipeAuth.MetricRefreshSuccess],
		snap.Counters[recipeAuth.MetricRevokedTokenRejected],
	)
}

func connectRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr = cmp.Or(addr, os.Getenv("REDIS_ADDR")); addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Println("redis:", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Println("redis: embedded", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

// seedUsers stores n active users sharing one password hash.
func seedUsers(store *recipeAuth.MemoryUserStore, n, cost int) ([]*userState, error) {
	hasher, err := password.NewBcrypt(password.Config{Cost: cost})
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(loadPassword)
	if err != nil {
		return nil, err
	}

	fmt.Printf("seeding %d users...\n", n)
	start := time.Now()
	states := make([]*userState, n)
	now := time.Now().UTC()
	for i := range states {
		email := fmt.Sprintf("cook-%d@load.example", i)
		store.Put(recipeAuth.User{
			Email:                   email,
			PasswordHash:            hash,
			Role:                    permission.RoleUser,
			Status:                  recipeAuth.StatusActive,
			EmailVerificationStatus: recipeAuth.EmailVerified,
			IsActive:                true,
			CreatedAt:               now,
		})
		states[i] = &userState{email: email}
	}
	fmt.Printf("seeded in %s\n", time.Since(start).Round(time.Millisecond))
	return states, nil
}

// runPhase runs op ops times across concurrency workers. Each worker keeps
// its own samples so the hot loop takes no lock.
func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		next     atomic.Int64
		failures atomic.Int64
		g        errgroup.Group
	)
	perWorker := make([][]time.Duration, concurrency)

	start := time.Now()
	for w := range concurrency {
		g.Go(func() error {
			r := rand.New(rand.NewSource(start.UnixNano() ^ int64(w+1)*104729))
			samples := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(next.Add(1)) - 1
				if i >= ops {
					break
				}
				began := time.Now()
				if op(r, i) != nil {
					failures.Add(1)
				}
				samples = append(samples, time.Since(began))
			}
			perWorker[w] = samples
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	return newPhaseStats(elapsed, slices.Concat(perWorker...), failures.Load())
}

type phaseStats struct {
	elapsed  time.Duration
	samples  []time.Duration
	failures int64
}

func newPhaseStats(elapsed time.Duration, samples []time.Duration, failures int64) phaseStats {
	slices.Sort(samples)
	return phaseStats{elapsed: elapsed, samples: samples, failures: failures}
}

// quantile returns the sample at fraction q of the sorted latencies.
func (s phaseStats) quantile(q float64) time.Duration {
	if len(s.samples) == 0 {
		return 0
	}
	idx := int(q * float64(len(s.samples)-1))
	return s.samples[max(0, min(idx, len(s.samples)-1))]
}

func (s phaseStats) throughput() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(len(s.samples)) / s.elapsed.Seconds()
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-9s n=%-7d err=%-5d wall=%-8s rate=%8.0f/s  p50=%-9s p95=%-9s p99=%s\n",
		name,
		len(s.samples),
		s.failures,
		s.elapsed.Round(time.Millisecond),
		s.throughput(),
		s.quantile(0.50).Round(time.Microsecond),
		s.quantile(0.95).Round(time.Microsecond),
		s.quantile(0.99).Round(time.Microsecond),
	)
}
