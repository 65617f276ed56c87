package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	propertydomain "github.com/rentfold/rentfold/internal/property/domain"
)

func (s *Server) CreateProperty(c *gin.Context) {
	var req propertydomain.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	property, err := s.propertySvc.CreateProperty(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": property})
}

func (s *Server) GetPropertyByID(c *gin.Context) {
	property, err := s.propertySvc.GetProperty(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": property})
}

func (s *Server) ListProperties(c *gin.Context) {
	properties, err := s.propertySvc.ListProperties(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": properties})
}

func (s *Server) CreateUnit(c *gin.Context) {
	var req propertydomain.CreateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	unit, err := s.propertySvc.CreateUnit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": unit})
}

func (s *Server) GetUnitByID(c *gin.Context) {
	unit, err := s.propertySvc.GetUnit(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": unit})
}

func (s *Server) ListUnits(c *gin.Context) {
	units, err := s.propertySvc.ListUnits(c.Request.Context(), c.Query("property_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": units})
}

func (s *Server) CreateTenant(c *gin.Context) {
	var req propertydomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.propertySvc.CreateTenant(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": tenant})
}

func (s *Server) GetTenantByID(c *gin.Context) {
	tenant, err := s.propertySvc.GetTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenant})
}

func (s *Server) ListTenants(c *gin.Context) {
	tenants, err := s.propertySvc.ListTenants(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": tenants})
}
