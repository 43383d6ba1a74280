// Package httpapi exposes the recipeAuth engine over HTTP.
//
//	server, err := httpapi.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/middleware"
	"github.com/MrEthical07/recipeAuth/permission"
	"go.uber.org/zap"
)

const gracefulShutdownTimeout = 10 * time.Second

// UserReader loads users for profile and ownership lookups.
type UserReader interface {
	FindByID(ctx context.Context, id string) (*recipeAuth.User, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config holds HTTP surface settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateLimit    middleware.RateLimitConfig
}

// Deps are the collaborators New wires into the router.
type Deps struct {
	Config Config
	Engine *recipeAuth.Engine
	Users  UserReader
	Logger *zap.Logger

	// Owners resolves resource owners for ownership-checked routes. When nil,
	// only the user resource is resolvable.
	Owners middleware.OwnershipResolver

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	Checks map[string]HealthCheck
}

// Server serves the auth API over chi.
type Server struct {
	cfg     Config
	engine  *recipeAuth.Engine
	users   UserReader
	logger  *zap.Logger
	guard   *middleware.AccessGuard
	metrics http.Handler
	checks  map[string]HealthCheck
	router  http.Handler
	server  *http.Server
}

// New validates deps and builds the router.
func New(deps Deps) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user reader is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:     deps.Config,
		engine:  deps.Engine,
		users:   deps.Users,
		logger:  logger.Named("http"),
		metrics: deps.Metrics,
		checks:  deps.Checks,
	}

	owners := deps.Owners
	if owners == nil {
		owners = middleware.OwnerLookups{permission.ResourceUser: s.userOwner}
	}
	s.guard = middleware.NewAccessGuard(deps.Engine, owners)
	s.router = s.buildRouter()
	return s, nil
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on cfg.Addr in the background. The listener is bound before
// Start returns.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	s.server = &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()
	return nil
}

// Close waits up to gracefulShutdownTimeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// userOwner treats a user record as owned by itself.
func (s *Server) userOwner(ctx context.Context, id string) (string, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if user.IsDeleted {
		return "", recipeAuth.ErrUserNotFound
	}
	return user.ID, nil
}
