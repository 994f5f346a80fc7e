package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// TokenValidator resolves a bearer token to the user id it was issued for.
type TokenValidator interface {
	Validate(token string) (int64, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token
// and stores the authenticated user id on the context.
func BearerAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			unauthorized(c, "Not authenticated")
			return
		}

		userID, err := tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			unauthorized(c, "Invalid token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (int64, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
