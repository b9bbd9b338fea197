package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nmakri/userhub/internal/config"
	"github.com/nmakri/userhub/internal/domain/user"
	"github.com/nmakri/userhub/internal/http/middlewares"
	"github.com/nmakri/userhub/internal/users"
)

// UserReader loads stored users for the profile endpoints.
type UserReader interface {
	GetUser(ctx context.Context, id string) (user.User, error)
}

type UsersHandler struct {
	users UserReader
}

func NewUsersHandler(users UserReader) *UsersHandler {
	return &UsersHandler{users: users}
}

// Me returns the profile of the authenticated caller.
func (h *UsersHandler) Me(ctx *gin.Context) {
	id, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetUser(cctx, id)

	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// token subject no longer exists, treat as stale credentials
			RespondUnAuthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}

		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// Admin is the role-gated demo endpoint. RequireRole has already verified
// the caller, so there is nothing left to check here.
func (h *UsersHandler) Admin(ctx *gin.Context) {
	id, _ := middlewares.UserIDFromContext(ctx)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Welcome, admin.",
		"userId":  id,
	})
}
