package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"go.uber.org/zap"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in the code field of error bodies.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeAccountNotUsable   = "account_not_usable"
	ErrCodeValidation         = "validation_error"
	ErrCodeConflict           = "conflict"
	ErrCodeUnauthorized       = "unauthorized"
	ErrCodeForbidden          = "forbidden"
	ErrCodeNotFound           = "not_found"
	ErrCodeRateLimited        = "rate_limited"
	ErrCodeNotImplemented     = "not_implemented"
	ErrCodeUnavailable        = "service_unavailable"
	ErrCodeInternal           = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

// writeEngineError maps the engine taxonomy onto a response. Internal
// failures are logged and never echoed.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := recipeAuth.HTTPStatus(err)
	code, message := errorCode(err), err.Error()

	switch {
	case errors.Is(err, recipeAuth.ErrInvalidCredentials):
		message = "invalid email or password"
	case errors.Is(err, recipeAuth.ErrUnauthorized), errors.Is(err, recipeAuth.ErrUnauthenticated):
		message = "authentication required"
	case errors.Is(err, recipeAuth.ErrForbidden):
		message = "access denied"
	case status >= http.StatusInternalServerError && status != http.StatusNotImplemented:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r)),
			zap.Error(err),
		)
		message = "internal server error"
		if status == http.StatusServiceUnavailable {
			message = "service unavailable"
		}
	}
	writeError(w, status, code, message)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, recipeAuth.ErrInvalidCredentials):
		return ErrCodeInvalidCredentials
	case errors.Is(err, recipeAuth.ErrAccountNotUsable):
		return ErrCodeAccountNotUsable
	case errors.Is(err, recipeAuth.ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, recipeAuth.ErrConflict):
		return ErrCodeConflict
	case errors.Is(err, recipeAuth.ErrUnauthorized), errors.Is(err, recipeAuth.ErrUnauthenticated):
		return ErrCodeUnauthorized
	case errors.Is(err, recipeAuth.ErrForbidden):
		return ErrCodeForbidden
	case errors.Is(err, recipeAuth.ErrUserNotFound):
		return ErrCodeNotFound
	case errors.Is(err, recipeAuth.ErrLoginRateLimited):
		return ErrCodeRateLimited
	case errors.Is(err, recipeAuth.ErrFeatureDisabled):
		return ErrCodeNotImplemented
	case errors.Is(err, recipeAuth.ErrRedisUnavailable):
		return ErrCodeUnavailable
	default:
		return ErrCodeInternal
	}
}

// decodeJSON reads a single JSON object into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
