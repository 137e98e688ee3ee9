package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/bookrec/internal/services"
)

const (
	ContextUserID   = "user_id"
	ContextUserTier = "user_tier"
)

// Auth accepts either a JWT issued by /auth/token or a raw API key. API key
// callers name the acting user in the X-User-ID header.
func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := tokenParts[1]

		// API keys carry no dots, JWTs always do
		if !strings.Contains(tokenString, ".") {
			userTier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key")
				return
			}

			userID, err := uuid.Parse(c.GetHeader("X-User-ID"))
			if err != nil || userID == uuid.Nil {
				abortWithError(c, http.StatusBadRequest, "INVALID_USER_ID", "X-User-ID header must be a valid user ID")
				return
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserTier, userTier)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserTier, claims.UserTier)
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user. ok is false when Auth
// did not run.
func GetUserFromContext(c *gin.Context) (userID uuid.UUID, userTier string, ok bool) {
	rawID, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, "", false
	}
	userID, ok = rawID.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	userTier = c.GetString(ContextUserTier)
	return userID, userTier, true
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}
