package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cursada/planner-api/internal/models"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/logger"
	"github.com/cursada/planner-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the authenticated *models.Principal.
const ContextPrincipalKey = "principal"

// TokenValidator turns a bearer token into the caller.
type TokenValidator interface {
	ValidateToken(token string) (*models.Principal, error)
}

// Auth protects routes by requiring a valid bearer token.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing or malformed bearer token"))
			c.Abort()
			return
		}

		principal, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextPrincipalKey, principal)
		c.Set(logger.UserIDKey, principal.UserID)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present but never blocks.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if principal, err := validator.ValidateToken(token); err == nil {
				c.Set(ContextPrincipalKey, principal)
				c.Set(logger.UserIDKey, principal.UserID)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
