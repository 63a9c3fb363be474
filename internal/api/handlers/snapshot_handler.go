// internal/api/handlers/snapshot_handler.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/service"
	"github.com/haysimo/siteops/internal/snapshot"
)

// maxSnapshotBody caps uploaded snapshot size.
const maxSnapshotBody = 64 << 20

type SnapshotHandler struct {
	snapshots *service.SnapshotService
}

func NewSnapshotHandler(snapshots *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// Export streams the full dataset as a downloadable JSON document.
func (h *SnapshotHandler) Export(c *gin.Context) {
	data, err := h.snapshots.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export snapshot"})
		return
	}

	filename := fmt.Sprintf("siteops-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// Import replaces all persisted state with the uploaded snapshot. Destructive
// and irreversible; callers must keep ledger traffic off while it runs.
func (h *SnapshotHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read snapshot body"})
		return
	}

	err = h.snapshots.Import(c.Request.Context(), data)
	if errors.Is(err, snapshot.ErrMalformedSnapshot) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "restored"})
}
