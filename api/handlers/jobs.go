package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListJobs exposes the scheduler job definitions and their latest run
// records for the settings surface. Job state is pull-only; there are no
// push notifications for failures.
func ListJobs(rt Runtime) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobs, err := rt.Repositories().SchedulerJobRepository.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
			return
		}
		c.JSON(http.StatusOK, jobs)
	}
}
