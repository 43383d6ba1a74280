package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/middleware"
)

// acceptedMessage is returned by the anti-enumeration endpoints whether or
// not the account exists.
const acceptedMessage = "if the account exists, an email has been sent"

type userView struct {
	ID                      string     `json:"id"`
	Email                   string     `json:"email"`
	Role                    string     `json:"role"`
	Status                  string     `json:"status"`
	EmailVerificationStatus string     `json:"emailVerificationStatus"`
	TenantID                string     `json:"tenantId,omitempty"`
	IsActive                bool       `json:"isActive"`
	LastLoginAt             *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
	Permissions             []string   `json:"permissions,omitempty"`
}

func viewOf(u *recipeAuth.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:                      u.ID,
		Email:                   u.Email,
		Role:                    u.Role.String(),
		Status:                  string(u.Status),
		EmailVerificationStatus: string(u.EmailVerificationStatus),
		TenantID:                u.TenantID,
		IsActive:                u.IsActive,
		LastLoginAt:             u.LastLoginAt,
		CreatedAt:               u.CreatedAt,
	}
}

type tokenResponse struct {
	User         *userView `json:"user,omitempty"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	TokenType    string    `json:"tokenType"`
}

func tokensOf(res *recipeAuth.AuthResult) *tokenResponse {
	if res == nil {
		return nil
	}
	return &tokenResponse{
		User:         viewOf(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		TokenType:    res.TokenType,
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	TenantID        string `json:"tenantId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	result, err := s.engine.Register(r.Context(), recipeAuth.RegisterRequest{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
		TenantID:        req.TenantID,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":   viewOf(result.User),
		"tokens": tokensOf(result.Tokens),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	result, err := s.engine.Authenticate(r.Context(), recipeAuth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensOf(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	result, err := s.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokensOf(result))
}

// handleLogout accepts the access token from the Authorization header and an
// optional refresh token in the body.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
	}
	access, _ := middleware.BearerToken(r.Header.Get("Authorization"))

	if err := s.engine.Logout(r.Context(), access, req.RefreshToken); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := s.engine.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": acceptedMessage})
}

type resetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	err := s.engine.ConfirmPasswordReset(r.Context(), recipeAuth.ResetPasswordRequest{
		Token:           req.Token,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) handlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.CheckPasswordStrength(req.Password))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	_, err := s.engine.ChangePassword(r.Context(), identity.Subject, recipeAuth.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := s.engine.VerifyEmail(r.Context(), req.Token); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if err := s.engine.ResendVerification(r.Context(), req.Email); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"message": acceptedMessage})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	user, err := s.users.FindByID(r.Context(), identity.Subject)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	set, _, err := s.engine.UserPermissions(r.Context(), user.ID)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	view := viewOf(user)
	view.Permissions = set.Strings()
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(user))
}

type lockRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleLockUser(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
	}
	if err := s.engine.LockAccount(r.Context(), chi.URLParam(r, "id"), req.Reason); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnlockUser(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.UnlockAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetAttempts(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ResetFailedLoginAttempts(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
