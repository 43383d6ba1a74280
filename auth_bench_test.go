package recipeAuth

import (
	"context"
	"testing"

	"github.com/MrEthical07/recipeAuth/permission"
)

func newBenchmarkEngine(b *testing.B, revocation bool) (*Engine, *AuthResult) {
	b.Helper()

	store := NewMemoryUserStore()
	cfg := testConfig()
	cfg.Revocation.Enabled = revocation

	builder := New().WithConfig(cfg).WithUserStore(store)
	if revocation {
		_, rdb := newTestRedis(b)
		builder = builder.WithRedis(rdb)
	}
	engine, err := builder.Build()
	if err != nil {
		b.Fatalf("build engine: %v", err)
	}
	b.Cleanup(engine.Close)

	hash, err := engine.hasher.Hash(context.Background(), strongPassword)
	if err != nil {
		b.Fatalf("hash: %v", err)
	}
	store.Put(User{
		Email:                   "cook@example.com",
		PasswordHash:            hash,
		Role:                    permission.RoleUser,
		Status:                  StatusActive,
		EmailVerificationStatus: EmailVerified,
		IsActive:                true,
	})

	login, err := engine.Authenticate(context.Background(), Credentials{Email: "cook@example.com", Password: strongPassword})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	return engine, login
}

func BenchmarkValidateAccessToken(b *testing.B) {
	engine, login := newBenchmarkEngine(b, false)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if engine.ValidateAccessToken(context.Background(), login.AccessToken) == nil {
			b.Fatal("validate failed")
		}
	}
}

func BenchmarkValidateAccessTokenWithRevocation(b *testing.B) {
	engine, login := newBenchmarkEngine(b, true)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if engine.ValidateAccessToken(context.Background(), login.AccessToken) == nil {
			b.Fatal("validate failed")
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	engine, login := newBenchmarkEngine(b, true)
	refresh := login.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := engine.Refresh(context.Background(), refresh)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		refresh = res.RefreshToken
	}
}

func BenchmarkUserPermissions(b *testing.B) {
	engine, login := newBenchmarkEngine(b, false)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := engine.UserPermissions(context.Background(), login.User.ID); err != nil {
			b.Fatalf("permissions: %v", err)
		}
	}
}

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricLoginSuccess)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricLoginSuccess)
		}
	})
}
