package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/food_delivery/auth-service/internal/service"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/fjod/food_delivery/pkg/session"
)

type Authenticator interface {
	Login(ctx context.Context, login, password string) (string, error)
	Register(ctx context.Context, login, password, email string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	auth    Authenticator
	timeout time.Duration
}

func NewAuthHandler(auth Authenticator, timeout time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, timeout: timeout}
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Login string `json:"login"`
}

// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	token, err := h.auth.Login(ctx, req.Login, req.Password)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	token, err := h.auth.Register(ctx, req.Login, req.Password, req.Email)
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// GET /session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	login, err := h.auth.Resolve(ctx, session.BearerToken(r))
	if err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, SessionResponse{Login: login})
}

// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token := session.BearerToken(r)
	if token == "" {
		httpx.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if err := h.auth.Logout(ctx, token); err != nil {
		handleServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrPasswordTooLong):
		httpx.RespondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, service.ErrLoginTaken):
		httpx.RespondError(w, http.StatusConflict, "login_taken", err.Error())
	case errors.Is(err, session.ErrInvalidToken):
		httpx.RespondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.ErrorContext(ctx, "auth request failed", slog.Any("err", err))
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
