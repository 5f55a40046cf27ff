package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/services"
)

// Runtime is the handlers' view of the server: the unlock operation plus
// the secret-gated subsystems, which are nil until a secret is accepted.
type Runtime interface {
	Unlock(ctx context.Context, secret string) error
	Repositories() *repository.Repositories
	Services() *services.Services
}

// RequireUnlocked rejects requests to gated endpoints before a secret has
// been accepted, instead of letting them fail deeper in the stack.
func RequireUnlocked(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rt.Repositories() == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "database is locked",
			})
			return
		}
		c.Next()
	}
}

// HealthCheck provides a simple health check endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
