// internal/api/handlers/complaint_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/repository"
	"github.com/haysimo/siteops/internal/service"
)

type ComplaintHandler struct {
	complaints *service.ComplaintService
}

func NewComplaintHandler(complaints *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{complaints: complaints}
}

type openComplaintRequest struct {
	Machine  string `json:"machine" binding:"required"`
	Operator string `json:"operator"`
	Details  string `json:"details" binding:"required"`
}

type replyRequest struct {
	Text string `json:"text"`
}

func (h *ComplaintHandler) Open(c *gin.Context) {
	var req openComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine and details are required"})
		return
	}

	complaint, err := h.complaints.Open(c.Request.Context(), req.Machine, req.Operator, req.Details)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open complaint"})
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *ComplaintHandler) List(c *gin.Context) {
	complaints, err := h.complaints.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch complaints"})
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	complaint, err := h.complaints.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch complaint"})
		return
	}

	// Thread is stored in append order; present newest first.
	c.JSON(http.StatusOK, gin.H{
		"complaint": complaint,
		"replies":   complaint.RepliesNewestFirst(),
	})
}

func (h *ComplaintHandler) Resolve(c *gin.Context) {
	err := h.complaints.Resolve(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrDocumentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve complaint"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resolved"})
}

func (h *ComplaintHandler) AppendReply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.complaints.AppendReply(c.Request.Context(), c.Param("id"), req.Text)
	switch {
	case errors.Is(err, service.ErrEmptyReply):
		c.JSON(http.StatusBadRequest, gin.H{"error": "reply text is required"})
	case errors.Is(err, repository.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to append reply"})
	default:
		c.JSON(http.StatusCreated, gin.H{"status": "reply added"})
	}
}
