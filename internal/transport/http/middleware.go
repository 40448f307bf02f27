package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/auth"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

const (
	// ContextKeyUserID is the context key for storing the verified user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyUserName is the context key for storing the display name.
	ContextKeyUserName = "user_name"
)

// IdentityMiddleware verifies an optional bearer token issued by the identity
// provider. Requests without a token pass through unless required is set;
// requests with a bad token are always rejected.
func IdentityMiddleware(cfg *auth.JWTConfig, required bool, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		token := auth.BearerToken(c.GetHeader("Authorization"))
		claims, err := auth.ValidateToken(cfg, token)
		switch {
		case errors.Is(err, auth.ErrMissingToken) && !required:
			c.Next()
			return
		case err != nil:
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, store.UserID(claims.Subject))
		c.Set(ContextKeyUserName, claims.Name)
		c.Next()
	}
}

// identityFrom returns the verified user of the request, if any.
func identityFrom(c *gin.Context) (store.UserID, string, bool) {
	v, ok := c.Get(ContextKeyUserID)
	if !ok {
		return "", "", false
	}
	userID, ok := v.(store.UserID)
	if !ok {
		return "", "", false
	}
	return userID, c.GetString(ContextKeyUserName), true
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
