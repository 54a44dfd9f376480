package middleware

import (
	"net/http"

	"devcatalyst/portal/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireOperation rejects callers whose role may not perform op. Controllers
// check again, this only fails requests early.
func RequireOperation(op models.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		if models.Authorize(actor.Role, op) != models.DecisionAllow {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":              "Insufficient permissions",
				"required_operation": op,
				"user_role":          actor.Role,
			})
			return
		}

		c.Next()
	}
}

// RequireRole admits only the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":          "Insufficient permissions",
			"required_roles": roles,
			"user_role":      actor.Role,
		})
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
