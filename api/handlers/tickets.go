package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	opsdesk_errors "github.com/opsdesk/opsdesk/errors"
	"github.com/opsdesk/opsdesk/internal/models"
)

func ListTickets(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := rt.Repositories().TicketRepository.ListByRecentActivity(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
			return
		}
		c.JSON(http.StatusOK, tickets)
	}
}

func GetTicket(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
			return
		}

		ctx := c.Request.Context()
		repos := rt.Repositories()

		ticket, err := repos.TicketRepository.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, opsdesk_errors.ErrTicketNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ticket"})
			return
		}

		replies, err := repos.TicketReplyRepository.ListByTicket(ctx, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load replies"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ticket":  ticket,
			"replies": replies,
		})
	}
}

type addReplyRequest struct {
	Content        string `json:"content" binding:"required"`
	IsInternalNote bool   `json:"isInternalNote"`
}

// AddReply appends a manual reply to a ticket and bumps its updated_at.
func AddReply(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
			return
		}

		var req addReplyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply content cannot be empty"})
			return
		}

		ctx := c.Request.Context()
		now := time.Now().UTC()
		reply := &models.TicketReply{
			TicketID:       id,
			Content:        req.Content,
			CreatedAt:      now,
			IsInternalNote: req.IsInternalNote,
		}

		if _, err := rt.Repositories().TicketReplyRepository.Create(ctx, reply); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add reply"})
			return
		}
		if err := rt.Repositories().TicketRepository.Touch(ctx, id, now); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update ticket"})
			return
		}

		c.JSON(http.StatusCreated, reply)
	}
}
