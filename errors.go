package recipeAuth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/recipeAuth/internal/stores"
)

// Error classes. Every error the engine returns for a business rule matches
// exactly one of these with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotUsable   = errors.New("account not usable")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Specific account-state failures. They match ErrAccountNotUsable.
var (
	ErrAccountLocked     = fmt.Errorf("%w: account locked", ErrAccountNotUsable)
	ErrAccountUnverified = fmt.Errorf("%w: email not verified", ErrAccountNotUsable)
	ErrAccountInactive   = fmt.Errorf("%w: account inactive", ErrAccountNotUsable)
)

// Request-level details. They match ErrValidation or ErrConflict.
var (
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrPasswordPolicy   = fmt.Errorf("%w: password does not meet policy", ErrValidation)
	ErrPasswordReuse    = fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidRole      = fmt.Errorf("%w: invalid role", ErrValidation)
	ErrChallengeInvalid = fmt.Errorf("%w: invalid or expired token", ErrValidation)
	ErrEmailTaken       = fmt.Errorf("%w: email already registered", ErrConflict)
)

// Store, throttle and wiring errors. They match none of the classes above.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLoginRateLimited = errors.New("login rate limited")
	ErrFeatureDisabled  = errors.New("feature disabled")
	ErrRedisRequired    = errors.New("redis client required")
)

// ErrRedisUnavailable matches any Redis failure from the challenge store
// or the deny-list. The engine returns such errors unchanged.
var ErrRedisUnavailable = stores.ErrRedisUnavailable

// HTTPStatus maps an engine error to the status code the HTTP surface
// answers with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountNotUsable), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrLoginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFeatureDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, ErrRedisUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
