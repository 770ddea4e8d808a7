package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ximepaparella/gifty-api/internal/models"
	"github.com/ximepaparella/gifty-api/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// contextKey is a type for context keys
type contextKey string

// APIKeyContextKey is where the authenticated key is stored in the request context
const APIKeyContextKey contextKey = "api_key"

// APIKeyAuth middleware validates API tokens from the Authorization header
func APIKeyAuth(users repository.UserRepository, requiredLevel models.AuthorizationLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Authorization header format. Expected: 'Bearer {token}'",
			})
			c.Abort()
			return
		}

		token := parts[1]

		apiKey, err := users.GetAPIKeyByKey(c.Request.Context(), token)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			c.Abort()
			return
		}

		if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
			log.Warn().Str("key_name", apiKey.Name).Msg("Expired API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "API key expired",
			})
			c.Abort()
			return
		}

		if apiKey.AuthorizationLevel < requiredLevel {
			log.Warn().
				Int("required", int(requiredLevel)).
				Int("provided", int(apiKey.AuthorizationLevel)).
				Msg("Insufficient permissions")
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		// Update last used timestamp without blocking the request
		now := time.Now()
		apiKey.LastUsedAt = &now
		go func() {
			users.UpdateAPIKey(context.Background(), apiKey)
		}()

		c.Set(string(APIKeyContextKey), apiKey)

		c.Next()
	}
}
