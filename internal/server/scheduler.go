package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RunScheduler triggers one full scheduler pass synchronously and reports
// per-job summaries. Meant for ops tooling and tests, not public traffic.
func (s *Server) RunScheduler(c *gin.Context) {
	summaries, err := s.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if summaries == nil {
		c.JSON(http.StatusOK, gin.H{"data": []any{}, "skipped": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}
