package authhandler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"dawaam/internal/domain/account"
	"dawaam/internal/domain/auth"
	"dawaam/internal/transport/http/api"
	"dawaam/internal/transport/http/middleware"
)

type Handler struct {
	Accounts   *account.Service
	Secret     string
	SessionTTL time.Duration
}

func NewHandler(accounts *account.Service, secret string, sessionTTL time.Duration) *Handler {
	return &Handler{Accounts: accounts, Secret: secret, SessionTTL: sessionTTL}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(h.Secret))
			r.Post("/logout", h.handleLogout)
			r.Post("/password", h.handleChangePassword)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/mfa/setup", h.handleMFASetup)
			r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/mfa/confirm", h.handleMFAConfirm)
		})
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	acc, err := h.Accounts.Authenticate(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrMFACodeInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrInactive):
			api.Fail(w, http.StatusUnauthorized, "account_inactive", "account is deactivated", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrBadCredentials):
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", middleware.GetRequestID(r.Context()))
		}
		return
	}

	sessionID, err := generateSessionID()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	expires := time.Now().Add(h.SessionTTL)
	if err := h.Accounts.Store.CreateSession(r.Context(), acc.ID, auth.HashToken(sessionID), expires); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		return
	}

	claims := auth.Claims{
		AccountID:        acc.ID,
		Role:             acc.Role,
		SessionID:        sessionID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: acc.Email},
	}
	token, err := auth.GenerateToken(h.Secret, claims, h.SessionTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"account": map[string]string{
			"id":    strconv.FormatInt(acc.ID, 10),
			"email": acc.Email,
			"name":  acc.FirstName + " " + acc.LastName,
			"role":  acc.Role,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if acc, ok := middleware.GetAccount(r.Context()); ok && acc.SessionID != "" {
		if err := h.Accounts.Store.RevokeSession(r.Context(), acc.AccountID, auth.HashToken(acc.SessionID)); err != nil {
			slog.Warn("logout session revoke failed", "accountId", acc.AccountID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	acc, ok := middleware.GetAccount(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	err := h.Accounts.ChangePassword(r.Context(), acc.AccountID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrBadCredentials):
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", middleware.GetRequestID(r.Context()))
		case errors.Is(err, account.ErrWeakPassword):
			api.Fail(w, http.StatusBadRequest, "validation_error", "password must be at least 10 characters", middleware.GetRequestID(r.Context()))
		default:
			api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", middleware.GetRequestID(r.Context()))
		}
		return
	}
	api.Success(w, map[string]string{"status": "password_changed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	acc, ok := middleware.GetAccount(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	url, err := h.Accounts.BeginMFASetup(r.Context(), acc.AccountID, acc.Email)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to start mfa enrolment", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"otpauthUrl": url}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAConfirm(w http.ResponseWriter, r *http.Request) {
	acc, ok := middleware.GetAccount(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Accounts.ConfirmMFASetup(r.Context(), acc.AccountID, payload.Code); err != nil {
		if errors.Is(err, account.ErrMFACodeInvalid) {
			api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "mfa_confirm_failed", "failed to confirm mfa enrolment", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "mfa_enabled"}, middleware.GetRequestID(r.Context()))
}

func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
