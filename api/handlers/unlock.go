package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
)

type unlockRequest struct {
	Password string `json:"password" binding:"required"`
}

// Unlock attempts to open the encrypted store with the supplied password.
// On the first success the scheduler is armed. The rejection message does
// not reveal whether the store file or the password was the problem.
func Unlock(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unlockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
			return
		}

		if err := rt.Unlock(c.Request.Context(), req.Password); err != nil {
			if errors.Is(err, opsdesk_errors.ErrInvalidSecret) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid master password"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unlock failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "unlocked"})
	}
}
