package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meghkala/api/internal/domain"
	"github.com/meghkala/api/internal/middleware"
	"github.com/meghkala/api/internal/service"
)

// AuthHandler exposes signup, login, OTP login, and session endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	logger   *slog.Logger
}

func NewAuthHandler(accounts *service.AccountService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{accounts: accounts, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type otpVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type sessionResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user, session, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user, session, err := h.accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// RequestOTP handles POST /api/auth/otp
// Always returns 200 so the endpoint cannot be used to probe accounts.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var in otpRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.accounts.RequestOTP(r.Context(), in.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for that email, a code has been sent",
	})
}

// VerifyOTP handles POST /api/auth/otp/verify
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var in otpVerifyRequest
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	user, session, err := h.accounts.VerifyOTP(r.Context(), in.Email, in.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		User:      user,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, r, domain.Unauthorized("auth.logout", "Authentication required"))
		return
	}
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		respondError(w, r, domain.Unauthorized("auth.me", "Authentication required"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
