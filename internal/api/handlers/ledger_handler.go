// internal/api/handlers/ledger_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/service"
)

type LedgerHandler struct {
	ledger *service.LedgerService
	audit  *service.AuditService
}

func NewLedgerHandler(ledger *service.LedgerService, audit *service.AuditService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, audit: audit}
}

type saleRequest struct {
	CustomerName string             `json:"customer_name"`
	Items        map[string]float64 `json:"items"`
}

type mutationRequest struct {
	Items map[string]domain.ItemDelta `json:"items"`
}

// RecordSale applies a sale mutation.
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	deltas := make(map[string]domain.ItemDelta, len(req.Items))
	for key, qty := range req.Items {
		deltas[key] = domain.ItemDelta{Value: qty}
	}

	h.apply(c, domain.MutationSale, deltas, service.MutationMeta{Customer: strings.TrimSpace(req.CustomerName)})
}

// RecordUsage applies an internal-usage mutation.
func (h *LedgerHandler) RecordUsage(c *gin.Context) {
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.apply(c, domain.MutationUsage, req.Items, service.MutationMeta{})
}

// RecordAddition applies a stock addition.
func (h *LedgerHandler) RecordAddition(c *gin.Context) {
	var req mutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.apply(c, domain.MutationAddition, req.Items, service.MutationMeta{})
}

func (h *LedgerHandler) apply(c *gin.Context, kind domain.MutationKind, deltas map[string]domain.ItemDelta, meta service.MutationMeta) {
	entryID, err := h.ledger.ApplyMutation(c.Request.Context(), kind, deltas, meta)
	switch {
	case errors.Is(err, service.ErrItemNotSellable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflictExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "stock is busy, please retry"})
	case errors.Is(err, service.ErrStockRecordMissing):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stock record is not initialized"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply mutation"})
	default:
		c.JSON(http.StatusOK, gin.H{"entry_id": entryID})
	}
}

// GetStock returns the current stock record.
func (h *LedgerHandler) GetStock(c *gin.Context) {
	record, err := h.ledger.Stock(c.Request.Context())
	if errors.Is(err, service.ErrStockRecordMissing) {
		c.JSON(http.StatusNotFound, gin.H{"error": "stock record is not initialized"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stock"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetCartonConversions returns the display-only carton-to-piece table.
func (h *LedgerHandler) GetCartonConversions(c *gin.Context) {
	c.JSON(http.StatusOK, domain.CartonConversions())
}

// ListAuditEntries returns audit entries, optionally filtered by kind and by
// UTC calendar day (date=YYYY-MM-DD).
func (h *LedgerHandler) ListAuditEntries(c *gin.Context) {
	filter := cache.AuditFilter{}

	if kindParam := c.Query("kind"); kindParam != "" {
		kind, ok := domain.ParseMutationKind(kindParam)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind value"})
			return
		}
		filter.Kind = kind
	}

	if dateParam := c.Query("date"); dateParam != "" {
		day, err := time.ParseInLocation("2006-01-02", dateParam, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date value, expected YYYY-MM-DD"})
			return
		}
		filter.Date = &day
	}

	entries, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch audit entries"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
