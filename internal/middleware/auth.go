package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentnetph/agent-network-backend/internal/common/jwt"
	"github.com/agentnetph/agent-network-backend/internal/common/response"
)

// AuthConfig authentication configuration
type AuthConfig struct {
	JWTManager *jwt.Manager
	UserType   string // expected user type
}

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserType = "user_type"
	ContextKeyRole     = "role"
	ContextKeyClaims   = "claims"
)

// Auth authentication middleware
func Auth(config *AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		claims, err := config.JWTManager.ParseToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, "session expired")
			} else {
				response.Unauthorized(c, "invalid token")
			}
			c.Abort()
			return
		}

		if config.UserType != "" && claims.UserType != config.UserType {
			response.Forbidden(c, "access denied")
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUserType, claims.UserType)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// AgentAuth agent authentication middleware
func AgentAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{
		JWTManager: jwtManager,
		UserType:   jwt.UserTypeAgent,
	})
}

// AdminAuth admin authentication middleware
func AdminAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return Auth(&AuthConfig{
		JWTManager: jwtManager,
		UserType:   jwt.UserTypeAdmin,
	})
}

// extractToken pulls the bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
