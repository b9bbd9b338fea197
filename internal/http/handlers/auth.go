package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nmakri/userhub/internal/auth"
	"github.com/nmakri/userhub/internal/config"
	"github.com/nmakri/userhub/internal/domain/user"
	"github.com/nmakri/userhub/internal/observability"
	"github.com/nmakri/userhub/internal/users"
)

// UserService is what the auth endpoints need from the registration service.
type UserService interface {
	CreateUser(ctx context.Context, username, email, password string) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
}

type AuthHandler struct {
	users   UserService
	jwt     *auth.Manager
	cfg     config.Config
	metrics *observability.Prom
}

func NewAuthHandler(users UserService, jwtManager *auth.Manager, cfg config.Config, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:   users,
		jwt:     jwtManager,
		cfg:     cfg,
		metrics: metrics,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.users.CreateUser(cctx, req.Username, req.Email, req.Password)

	if err != nil {
		h.countAuth("register", "rejected")

		switch {
		case errors.Is(err, users.ErrInvalidUsername):
			RespondBadRequest(ctx, "invalid_username", err.Error(), nil)
		case errors.Is(err, users.ErrInvalidEmail):
			RespondBadRequest(ctx, "invalid_email", err.Error(), nil)
		case errors.Is(err, users.ErrWeakPassword):
			RespondBadRequest(ctx, "weak_password", err.Error(), nil)
		case errors.Is(err, users.ErrAlreadyExists):
			RespondConflict(ctx, "already_exists", "Username or email is already in use.")
		default:
			h.countAuth("register", "error")
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	h.countAuth("register", "ok")
	h.setRefreshCookie(ctx, refreshToken)

	ctx.JSON(http.StatusCreated, gin.H{
		"user":        u,
		"accessToken": accessToken,
		"expiresIn":   int(h.jwt.AccessTTL().Seconds()),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup + bcrypt
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Authenticate(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.countAuth("login", "rejected")
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
			return
		}

		h.countAuth("login", "error")
		RespondInternal(ctx, "Could not log in")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	refreshToken, err := h.jwt.GenerateRefreshToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate refresh token")
		return
	}

	h.countAuth("login", "ok")
	h.setRefreshCookie(ctx, refreshToken)

	ctx.JSON(http.StatusOK, gin.H{
		"user":        u,
		"accessToken": accessToken,
		"expiresIn":   int(h.jwt.AccessTTL().Seconds()),
	})
}

// Refresh mints a new access token off a valid refresh token. The refresh
// token itself is passed back unchanged: tokens are stateless, there is no
// server-side ledger to rotate against.
func (h *AuthHandler) Refresh(ctx *gin.Context) {
	raw, err := ctx.Cookie(refreshCookieName)

	if err != nil || raw == "" {
		RespondUnAuthorized(ctx, "no_refresh", "Missing refresh token")
		return
	}

	subject, err := h.jwt.VerifyRefreshToken(raw)

	if err != nil {
		h.countAuth("refresh", "rejected")

		if errors.Is(err, auth.ErrExpired) {
			RespondUnAuthorized(ctx, "expired_refresh", "Refresh token expired.")
			return
		}

		RespondUnAuthorized(ctx, "invalid_refresh", "Invalid refresh token")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(subject)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	h.countAuth("refresh", "ok")

	// re-set the same cookie so its Max-Age tracks the remaining validity
	h.setRefreshCookie(ctx, raw)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"expiresIn":   int(h.jwt.AccessTTL().Seconds()),
	})
}

// Logout clears the refresh cookie. With no revocation store the token
// itself stays valid until it expires; this only forgets it client-side.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.clearRefreshCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// Helper functions

const refreshCookieName = "refresh_token"

func (h *AuthHandler) setRefreshCookie(ctx *gin.Context, raw string) {
	secure := h.cfg.Env == "prod"

	ctx.SetSameSite(http.SameSiteStrictMode)

	ctx.SetCookie(
		refreshCookieName,
		raw,
		int(h.cfg.RefreshTTL().Seconds()),
		"/auth",
		"",
		secure,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearRefreshCookie(ctx *gin.Context) {
	secure := h.cfg.Env == "prod"
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(
		refreshCookieName,
		"",
		-1,
		"/auth",
		"",
		secure,
		true,
	)
}

func (h *AuthHandler) countAuth(op, result string) {
	if h.metrics != nil {
		h.metrics.AuthAttempts.WithLabelValues(op, result).Inc()
	}
}
