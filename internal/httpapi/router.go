package httpapi

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MrEthical07/recipeAuth/middleware"
	"github.com/MrEthical07/recipeAuth/permission"
)

const healthCheckTimeout = 2 * time.Second

var (
	adminRoles = []permission.Role{permission.RoleSuperAdmin, permission.RoleAdmin}

	authenticated = middleware.RouteConfig{}

	userProfileRoute = middleware.RouteConfig{
		RequiredPermissions: []permission.Permission{permission.UsersRead},
		AdminBypass:         true,
		CheckOwnership:      true,
		ResourceType:        permission.ResourceUser,
		ResourceID:          func(r *http.Request) string { return chi.URLParam(r, "id") },
	}

	adminUsersRoute = middleware.RouteConfig{
		RequiredRoles:       adminRoles,
		RequiredPermissions: []permission.Permission{permission.UsersManage},
	}
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.cfg.RateLimit))
		r.Use(middleware.Authenticate(s.engine))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)

			r.Post("/password/forgot", s.handleForgotPassword)
			r.Post("/password/reset", s.handleResetPassword)
			r.Post("/password/strength", s.handlePasswordStrength)
			r.With(middleware.Require(s.guard, authenticated)).Post("/password/change", s.handleChangePassword)

			r.Post("/email/verify", s.handleVerifyEmail)
			r.Post("/email/resend", s.handleResendVerification)

			r.With(middleware.Require(s.guard, authenticated)).Get("/me", s.handleMe)
		})

		r.With(middleware.Require(s.guard, userProfileRoute)).Get("/users/{id}", s.handleGetUser)

		r.Route("/admin/users/{id}", func(r chi.Router) {
			r.Use(middleware.Require(s.guard, adminUsersRoute))
			r.Post("/lock", s.handleLockUser)
			r.Post("/unlock", s.handleUnlockUser)
			r.Post("/reset-attempts", s.handleResetAttempts)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	failed := make([]string, 0)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)

	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
