// Command recipeauth-server serves the recipe platform authentication API.
//
// Run with an in-memory user store and an embedded redis:
//
//	RECIPEAUTH_ACCESS_SECRET=$(openssl rand -hex 32) go run ./cmd/recipeauth-server
//
// Point it at real infrastructure with a config file or the environment:
//
//	RECIPEAUTH_DATABASE_DSN=postgres://recipes@localhost/recipes \
//	RECIPEAUTH_REDIS_ADDR=localhost:6379 \
//	go run ./cmd/recipeauth-server -config configs/recipeauth.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/internal/httpapi"
	"github.com/MrEthical07/recipeAuth/internal/serverconfig"
	"github.com/MrEthical07/recipeAuth/metrics/export/prometheus"
	"github.com/MrEthical07/recipeAuth/userstore"
)

var (
	version = "dev"
	commit  = "unknown"
)

type userStore interface {
	recipeAuth.UserStore
	httpapi.UserReader
}

func main() {
	configPath := flag.String("config", os.Getenv(serverconfig.EnvPrefix+"CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := serverconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting recipeauth-server",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("config", configPath),
	)

	checks := make(map[string]httpapi.HealthCheck)

	store, closeStore, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if pg, ok := store.(*userstore.Postgres); ok {
		checks["postgres"] = pg.Ping
	}

	engineCfg := cfg.EngineConfig()
	builder := recipeAuth.New().
		WithConfig(engineCfg).
		WithUserStore(store).
		WithLogger(log.Named("auth")).
		WithNotifier(&logNotifier{log: log.Named("notify"), revealTokens: cfg.Logging.Development})

	if engineCfg.RequiresRedis() {
		client, closeRedis, err := openRedis(cfg.Redis, log)
		if err != nil {
			return err
		}
		defer closeRedis()
		builder = builder.WithRedis(client)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	if engineCfg.Audit.Enabled {
		sink, closeAudit, err := openAuditSink(cfg.Auth.Audit, log)
		if err != nil {
			return err
		}
		defer closeAudit()
		builder = builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("building auth engine: %w", err)
	}
	defer engine.Close()
	report := engine.SecurityReport()
	log.Info("auth engine ready",
		zap.Duration("access_ttl", report.AccessTTL),
		zap.Duration("refresh_ttl", report.RefreshTTL),
		zap.Int("bcrypt_cost", report.Password.Cost),
		zap.Bool("revocation", report.RevocationActive),
		zap.Bool("login_throttle", report.LoginThrottleActive),
		zap.Bool("password_reset", report.PasswordResetActive),
		zap.Bool("email_verification", report.EmailVerificationActive),
	)
	for _, warning := range report.Warnings {
		log.Warn("security posture", zap.String("warning", warning))
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = prometheus.Handler(prometheus.NewCollector(engine))
	}

	server, err := httpapi.New(httpapi.Deps{
		Config: httpapi.Config{
			Addr:         cfg.Server.Addr,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
			RateLimit:    cfg.RateLimit(),
		},
		Engine:  engine,
		Users:   store,
		Logger:  log,
		Metrics: metricsHandler,
		Checks:  checks,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting http server: %w", err)
	}
	defer func() {
		if err := server.Close(); err != nil {
			log.Error("error closing http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

func openStore(ctx context.Context, cfg serverconfig.DatabaseConfig, log *zap.Logger) (userStore, func(), error) {
	if cfg.DSN == "" {
		log.Warn("no database configured, users are kept in memory")
		return recipeAuth.NewMemoryUserStore(), func() {}, nil
	}

	pg, err := userstore.Open(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closeFn := func() {
		log.Info("closing database")
		if err := pg.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}
	if err := pg.Ping(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if cfg.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("database migrations complete")
	}
	return pg, closeFn, nil
}

func openAuditSink(cfg serverconfig.AuditConfig, log *zap.Logger) (recipeAuth.AuditSink, func(), error) {
	sinks := recipeAuth.MultiAuditSink{recipeAuth.NewZapAuditSink(log.Named("audit"))}
	if cfg.File == "" {
		return sinks, func() {}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit file: %w", err)
	}
	jsonSink := recipeAuth.NewJSONWriterAuditSink(f)
	sinks = append(sinks, jsonSink)
	closeFn := func() {
		if n := jsonSink.Failed(); n > 0 {
			log.Warn("audit events not written", zap.Uint64("count", n), zap.String("file", cfg.File))
		}
		if err := f.Close(); err != nil {
			log.Error("error closing audit file", zap.Error(err))
		}
	}
	log.Info("audit file configured", zap.String("file", cfg.File))
	return sinks, closeFn, nil
}

func openRedis(cfg serverconfig.RedisConfig, log *zap.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Addr
	var mr *miniredis.Miniredis
	if addr == "" {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("starting embedded redis: %w", err)
		}
		addr = mr.Addr()
		log.Warn("using embedded redis, state is lost on restart", zap.String("addr", addr))
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	closeFn := func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}
	log.Info("redis configured", zap.String("addr", addr), zap.Int("db", cfg.DB))
	return client, closeFn, nil
}
