package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nmakri/userhub/internal/domain/user"
)

// UserDirectory resolves the caller's stored record. Roles live in the
// database, not in the token, so a role change takes effect on the next
// request rather than at the next token refresh.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (user.User, error)
}

// RequireRole runs after RequireAuth and gates the route on the caller's
// stored role. Inactive accounts are rejected regardless of role.
func RequireRole(users UserDirectory, required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserIDFromContext(c)

		if !ok || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := users.GetUser(ctx, id)

		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Unknown user",
				},
			})
			return
		}

		if !u.Active || u.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Insufficient permissions",
				},
			})
			return
		}
		c.Next()
	}
}
