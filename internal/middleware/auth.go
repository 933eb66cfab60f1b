package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carepulse/internal/session"
)

// AuthMiddleware rejects requests that don't carry the bearer token of
// the current session. The user id is placed in the request context
// for handlers and logging.
func AuthMiddleware(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Missing bearer token",
			})
			return
		}

		if !sessions.Authorized(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Invalid or expired session",
			})
			return
		}

		if user, ok := sessions.Current(); ok {
			c.Set("user_id", user.ID)
			c.Set("user_name", displayName(user.Name, user.Email))
		}

		c.Next()
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}

	return email
}
