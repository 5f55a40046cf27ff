package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk/internal/models"
)

type addNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

func ListCompanyNotes(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
			return
		}

		notes, err := rt.Repositories().NoteRepository.ListByCompany(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
			return
		}
		c.JSON(http.StatusOK, notes)
	}
}

func AddCompanyNote(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
			return
		}

		var req addNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "note content cannot be empty"})
			return
		}

		note := &models.CompanyNote{
			CompanyID: id,
			Content:   req.Content,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := rt.Repositories().NoteRepository.CreateCompanyNote(c.Request.Context(), note); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add note"})
			return
		}
		c.JSON(http.StatusCreated, note)
	}
}

func ListUserNotes(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		notes, err := rt.Repositories().NoteRepository.ListByUser(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
			return
		}
		c.JSON(http.StatusOK, notes)
	}
}

func AddUserNote(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}

		var req addNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "note content cannot be empty"})
			return
		}

		note := &models.UserNote{
			UserID:    id,
			Content:   req.Content,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := rt.Repositories().NoteRepository.CreateUserNote(c.Request.Context(), note); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add note"})
			return
		}
		c.JSON(http.StatusCreated, note)
	}
}
