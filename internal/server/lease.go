package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
)

func (s *Server) CreateLease(c *gin.Context) {
	var req leasedomain.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lease, err := s.leaseSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": lease})
}

func (s *Server) GetLeaseByID(c *gin.Context) {
	lease, err := s.leaseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lease})
}

func (s *Server) ListLeases(c *gin.Context) {
	leases, err := s.leaseSvc.List(c.Request.Context(), leasedomain.ListLeaseRequest{
		UnitID: c.Query("unit_id"),
		Status: c.Query("status"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leases})
}

func (s *Server) TerminateLease(c *gin.Context) {
	lease, err := s.leaseSvc.Terminate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lease})
}
