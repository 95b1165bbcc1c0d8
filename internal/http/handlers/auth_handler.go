package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mjoly/fete-invites/internal/domain"
	"github.com/mjoly/fete-invites/internal/http/response"
	"github.com/mjoly/fete-invites/internal/token"
	"github.com/mjoly/fete-invites/pkg/logger"
)

const refreshCookieName = "refreshToken"

type AuthHandler struct {
	Tokens     *token.Service
	RefreshTTL time.Duration
	Production bool // controls the Secure cookie flag
}

func NewAuthHandler(tokens *token.Service, refreshTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{Tokens: tokens, RefreshTTL: refreshTTL, Production: production}
}

func (h *AuthHandler) Routes(loginLimiter func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(loginLimiter).Post("/admin", h.login)
	r.Post("/verify", h.verify)
	r.Post("/refresh", h.refresh)
	r.Post("/logout", h.logout)
	return r
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Password == "" {
		response.BadRequest(w, "Password required")
		return
	}

	session, err := h.Tokens.Login(r.Context(), in.Password, r.UserAgent())
	if err != nil {
		if errors.Is(err, token.ErrNotConfigured) {
			logger.ErrorContext(r.Context(), "admin login misconfigured", "error", err)
			response.Error(w, http.StatusInternalServerError, "Server configuration error")
			return
		}
		response.Unauthorized(w, "Invalid password")
		return
	}

	h.setRefreshCookie(w, session.RefreshToken)

	response.Success(w, http.StatusOK, "Authentication successful", map[string]any{
		"accessToken": session.AccessToken,
		"expiresIn":   session.ExpiresIn,
		"tokenType":   "Bearer",
	})
}

func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		response.Unauthorized(w, "Access token required")
		return
	}

	claims, err := h.Tokens.Verify(strings.TrimPrefix(authz, "Bearer "))
	if err != nil {
		response.Forbidden(w, "Invalid or expired token")
		return
	}

	response.Success(w, http.StatusOK, "Token valid", map[string]any{
		"user": map[string]any{
			"adminId": claims.AdminID,
			"role":    claims.Role,
			"exp":     claims.ExpiresAt.Unix(),
		},
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := h.refreshTokenFrom(r)
	if refreshToken == "" {
		response.Unauthorized(w, "Refresh token required")
		return
	}

	session, err := h.Tokens.Refresh(r.Context(), refreshToken, r.UserAgent())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Forbidden(w, "Invalid or expired token")
			return
		}
		logger.ErrorContext(r.Context(), "token refresh failed", "error", err)
		response.InternalError(w)
		return
	}

	h.setRefreshCookie(w, session.RefreshToken)

	response.Success(w, http.StatusOK, "Token refreshed", map[string]any{
		"accessToken": session.AccessToken,
		"expiresIn":   session.ExpiresIn,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken := h.refreshTokenFrom(r); refreshToken != "" {
		h.Tokens.Logout(r.Context(), refreshToken)
	}

	h.clearRefreshCookie(w)
	response.Success(w, http.StatusOK, "Logged out", nil)
}

// refreshTokenFrom reads the cookie first and falls back to the JSON body.
func (h *AuthHandler) refreshTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err == nil {
		return in.RefreshToken
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   int(h.RefreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Production,
		SameSite: http.SameSiteStrictMode,
	})
}
