package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ExportService produces the CSV export files
type ExportService interface {
	ExportAll(ctx context.Context) ([]string, error)
}

// KnowledgeService pushes fresh export files to the assistant
type KnowledgeService interface {
	UpdateKnowledge(ctx context.Context, paths []string) error
}

// ExportHandler handles export API endpoints
type ExportHandler struct {
	BaseHandler
	exporter  ExportService
	knowledge KnowledgeService
	logger    *zap.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exporter ExportService, knowledge KnowledgeService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exporter:  exporter,
		knowledge: knowledge,
		logger:    logger,
	}
}

// RegisterRoutes registers export routes
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/export", h.Export)
}

// ExportResponse lists the written export files
type ExportResponse struct {
	Files []string `json:"files"`
	// KnowledgeUpdated reports whether the assistant received the new files
	KnowledgeUpdated bool `json:"knowledge_updated"`
}

// Export writes the CSV exports and refreshes the assistant's knowledge.
// A failed knowledge push does not fail the export; the files are on disk
// and the next scheduled refresh retries.
func (h *ExportHandler) Export(c *gin.Context) {
	paths, err := h.exporter.ExportAll(c.Request.Context())
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		h.Error(c, dto.ErrCodeInternal, "export failed")
		return
	}

	updated := true
	if err := h.knowledge.UpdateKnowledge(c.Request.Context(), paths); err != nil {
		h.logger.Error("knowledge refresh after export failed", zap.Error(err))
		updated = false
	}

	h.Success(c, ExportResponse{Files: paths, KnowledgeUpdated: updated})
}
