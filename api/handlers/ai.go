package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

func Summarize(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}

		summary, err := rt.Services().AIService.Summarize(c.Request.Context(), req.Text)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "summarization failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

func Sanitize(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req textRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
			return
		}

		sanitized, err := rt.Services().AIService.Sanitize(c.Request.Context(), req.Text)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "sanitization failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sanitized": sanitized})
	}
}
