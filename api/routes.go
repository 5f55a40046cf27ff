package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/opsdesk/opsdesk/api/handlers"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, rt handlers.Runtime) {
	if rt == nil {
		panic("Runtime cannot be nil")
	}

	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)
	r.POST("/unlock", tracing.TracingEnhancer(ctx, "POST /unlock"), handlers.Unlock(rt))

	// Everything below requires the store to be unlocked first.
	v1 := r.Group("/v1")
	v1.Use(handlers.RequireUnlocked(rt))
	{
		tickets := v1.Group("/tickets")
		{
			tickets.GET("", handlers.ListTickets(rt))
			tickets.GET("/:id", handlers.GetTicket(rt))
			tickets.POST("/:id/replies", handlers.AddReply(rt))
		}

		companies := v1.Group("/companies")
		{
			companies.GET("/:id/notes", handlers.ListCompanyNotes(rt))
			companies.POST("/:id/notes", handlers.AddCompanyNote(rt))
		}

		users := v1.Group("/users")
		{
			users.GET("/:id/notes", handlers.ListUserNotes(rt))
			users.POST("/:id/notes", handlers.AddUserNote(rt))
		}

		v1.GET("/jobs", handlers.ListJobs(rt))

		v1.POST("/summarize", handlers.Summarize(rt))
		v1.POST("/sanitize", handlers.Sanitize(rt))
	}
}
