package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ContextAdminEmail = "admin_email"

// TokenValidator verifies an admin session token and returns the admin
// identity it carries.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "missing bearer token",
			})
			return
		}

		email, err := m.validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(ContextAdminEmail, email)
		c.Next()
	}
}
