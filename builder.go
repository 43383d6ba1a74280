package recipeAuth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/recipeAuth/internal/audit"
	"github.com/MrEthical07/recipeAuth/internal/ids"
	"github.com/MrEthical07/recipeAuth/internal/rate"
	"github.com/MrEthical07/recipeAuth/internal/stores"
	"github.com/MrEthical07/recipeAuth/jwt"
	"github.com/MrEthical07/recipeAuth/password"
	"github.com/MrEthical07/recipeAuth/permission"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an [Engine]. A Builder can be built once.
type Builder struct {
	config    Config
	store     UserStore
	redis     redis.UniversalClient
	logger    *zap.Logger
	notifier  Notifier
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		now:    time.Now,
	}
}

// WithConfig replaces the whole configuration. The value is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the required persistence backend.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.store = store
	return b
}

// WithRedis sets the client used by one-time flows, the login throttle and
// the token deny-list. It is required only when one of them is enabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the engine logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithNotifier sets the delivery channel for reset and verification tokens.
// A nil notifier keeps NoopNotifier.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the time source for token issuance and account
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = now
	}
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("user store is required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.config.RequiresRedis() && b.redis == nil {
		return nil, fmt.Errorf("%w: password reset, email verification, login throttle and revocation need redis", ErrRedisRequired)
	}

	cfg := cloneConfig(b.config)

	hasher, err := password.NewBcrypt(password.Config{
		Cost:      cfg.Password.Cost,
		MinLength: cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	codecCfg := jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Leeway:        cfg.JWT.Leeway,
		Now:           b.now,
	}
	if cfg.Revocation.Enabled {
		codecCfg.NewID = ids.New
	}
	codec, err := jwt.NewCodec(codecCfg)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = NoopNotifier{}
	}

	e := &Engine{
		config:   cfg,
		store:    b.store,
		hasher:   password.NewPool(hasher, cfg.Password.HashConcurrency),
		codec:    codec,
		resolver: permission.NewResolver(storeRoleLookup{store: b.store}),
		notifier: notifier,
		logger:   logger.Named("recipeauth"),
		metrics:  NewMetrics(cfg.Metrics),
		now:      b.now,
	}

	if cfg.Security.EnableLoginThrottle {
		e.throttle = rate.New(b.redis, rate.Config{
			EnableIPThrottle:      cfg.Security.EnableIPThrottle,
			MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
			LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		})
	}
	if cfg.PasswordReset.Enabled || cfg.EmailVerification.Enabled {
		e.challenges = stores.NewChallengeStore(b.redis, "")
	}
	if cfg.Revocation.Enabled {
		e.denyList = stores.NewDenyList(b.redis, "")
	}
	if codec.SharedSecret() {
		e.logger.Warn("refresh tokens share the access secret; set a distinct refresh secret")
	}

	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = audit.NewZapSink(e.logger.Named("audit"))
		}
		e.audit = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	b.built = true
	return e, nil
}
