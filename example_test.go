package recipeAuth_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/permission"
)

// ExampleNew builds an engine with the recovery flows and token revocation,
// which need redis.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := recipeAuth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("replace-with-32-bytes-of-randomness!")
	cfg.JWT.RefreshSecret = []byte("replace-with-another-32-random-bytes")
	cfg.PasswordReset.Enabled = true
	cfg.EmailVerification.Enabled = true
	cfg.Revocation.Enabled = true

	engine, err := recipeAuth.New().
		WithConfig(cfg).
		WithUserStore(recipeAuth.NewMemoryUserStore()).
		WithRedis(rdb).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Authenticate shows how login errors map onto responses.
func ExampleEngine_Authenticate() {
	var engine *recipeAuth.Engine
	_, err := engine.Authenticate(context.Background(), recipeAuth.Credentials{
		Email:    "cook@example.com",
		Password: "Tr0ub4dor&Xyz",
	})
	switch {
	case errors.Is(err, recipeAuth.ErrInvalidCredentials):
		fmt.Println("wrong email or password")
	case errors.Is(err, recipeAuth.ErrAccountNotUsable):
		fmt.Println("account locked, unverified or inactive")
	}
}

// ExampleEngine_HasPermission checks a permission against the stored role.
func ExampleEngine_HasPermission() {
	var engine *recipeAuth.Engine
	ok, err := engine.HasPermission(context.Background(), "user-1", permission.RecipesPublish)
	if err != nil {
		return
	}
	_ = ok
}

// ExampleEngine_MetricsSnapshot reads in-process counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *recipeAuth.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot.Counters[recipeAuth.MetricLoginSuccess]
}
