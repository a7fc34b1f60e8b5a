package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	syncdomain "github.com/shopsync/backend/internal/domain/sync"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
)

// SyncService runs the Shopify synchronization operations
type SyncService interface {
	SyncAll(ctx context.Context) syncdomain.Result
	SyncAllOrders(ctx context.Context) syncdomain.Result
	SyncAllInventory(ctx context.Context) syncdomain.Result
	SyncRecentOrders(ctx context.Context, days int) syncdomain.Result
}

// SyncHandler handles synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	service SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Sync)
}

// SyncRequest selects which synchronization to run
type SyncRequest struct {
	Type string `json:"type" binding:"required,oneof=all orders inventory recent"`
	// Days is the lookback window for type "recent", default 1
	Days int `json:"days" binding:"omitempty,min=1,max=90"`
}

// Sync runs a synchronization and reports its outcome
func (h *SyncHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	var result syncdomain.Result
	switch req.Type {
	case "all":
		result = h.service.SyncAll(c.Request.Context())
	case "orders":
		result = h.service.SyncAllOrders(c.Request.Context())
	case "inventory":
		result = h.service.SyncAllInventory(c.Request.Context())
	case "recent":
		days := req.Days
		if days == 0 {
			days = 1
		}
		result = h.service.SyncRecentOrders(c.Request.Context(), days)
	}

	if !result.Success {
		h.Error(c, dto.ErrCodeUpstream, result.Message)
		return
	}
	h.Success(c, result)
}
