package middleware

import (
	"net/http"
	"strings"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// TokenParser turns a bearer token into verified claims.
type TokenParser interface {
	ParseAccessToken(tokenString string) (*services.Claims, error)
}

// Authenticate verifies the bearer token and stores the caller's identity on
// the context for ActorFrom.
func Authenticate(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		claims, err := parser.ParseAccessToken(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token is invalid or has expired",
			})
			return
		}

		c.Set(actorKey, claims.Actor())
		c.Next()
	}
}

// ActorFrom returns the identity set by Authenticate.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}

// SetActor is used by tests and internal callers that authenticate by other
// means.
func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}
