package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/jwt"
)

// TokenValidator verifies access tokens. *recipeAuth.Engine satisfies it.
// Rejected tokens must match recipeAuth.ErrUnauthorized; any other error is
// treated as an outage.
type TokenValidator interface {
	VerifyAccessToken(ctx context.Context, token string) (*jwt.Payload, error)
}

type identityContextKey struct{}

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(ctx context.Context) (*jwt.Payload, bool) {
	p, ok := ctx.Value(identityContextKey{}).(*jwt.Payload)
	return p, ok && p != nil
}

// WithIdentity attaches identity to ctx.
func WithIdentity(ctx context.Context, identity *jwt.Payload) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// Authenticate validates a bearer token when one is present and attaches the
// resulting identity. Invalid tokens pass through without an identity and
// enforcement is left to Require. A validator outage answers with the status
// recipeAuth.HTTPStatus picks for it.
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok || validator == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			identity, err := validator.VerifyAccessToken(ctx, token)
			switch {
			case err == nil:
				ctx = WithIdentity(ctx, identity)
				ctx = recipeAuth.WithActorID(ctx, identity.Subject)
			case !errors.Is(err, recipeAuth.ErrUnauthorized):
				status := recipeAuth.HTTPStatus(err)
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require enforces route through guard. Unauthenticated requests get 401,
// denials 403, and store failures 500.
func Require(guard *AccessGuard, route RouteConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())

			var resourceID string
			if route.ResourceID != nil {
				resourceID = route.ResourceID(r)
			}

			if err := guard.Check(r.Context(), identity, route, resourceID); err != nil {
				status := recipeAuth.HTTPStatus(err)
				http.Error(w, http.StatusText(status), status)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
