// internal/api/handlers/site_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/service"
)

type SiteHandler struct {
	site *service.SiteService
}

func NewSiteHandler(site *service.SiteService) *SiteHandler {
	return &SiteHandler{site: site}
}

func (h *SiteHandler) CreateEmployee(c *gin.Context) {
	var req domain.Employee
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "employee name is required"})
		return
	}

	employee, err := h.site.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create employee"})
		return
	}
	c.JSON(http.StatusCreated, employee)
}

func (h *SiteHandler) ListEmployees(c *gin.Context) {
	employees, err := h.site.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch employees"})
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *SiteHandler) DeleteEmployee(c *gin.Context) {
	if err := h.site.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete employee"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SiteHandler) CreateMachine(c *gin.Context) {
	var req domain.Machine
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine name is required"})
		return
	}

	machine, err := h.site.CreateMachine(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create machine"})
		return
	}
	c.JSON(http.StatusCreated, machine)
}

func (h *SiteHandler) ListMachines(c *gin.Context) {
	machines, err := h.site.ListMachines(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch machines"})
		return
	}
	c.JSON(http.StatusOK, machines)
}

func (h *SiteHandler) DeleteMachine(c *gin.Context) {
	if err := h.site.DeleteMachine(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete machine"})
		return
	}
	c.Status(http.StatusNoContent)
}
