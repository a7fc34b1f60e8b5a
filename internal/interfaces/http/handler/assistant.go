package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	appassistant "github.com/shopsync/backend/internal/application/assistant"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// apologyMessage is what callers see when the AI provider fails. The real
// error goes to the log; the chat user gets a plain sentence.
const apologyMessage = "Sorry, I could not answer that right now. Please try again in a moment."

// AskService answers free-form questions about the synced store data
type AskService interface {
	Ask(ctx context.Context, question string) (string, error)
}

// AssistantHandler handles analyst assistant API endpoints
type AssistantHandler struct {
	BaseHandler
	asker     AskService
	exporter  ExportService
	knowledge KnowledgeService
	logger    *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(asker AskService, exporter ExportService, knowledge KnowledgeService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		asker:     asker,
		exporter:  exporter,
		knowledge: knowledge,
		logger:    logger,
	}
}

// RegisterRoutes registers assistant routes
func (h *AssistantHandler) RegisterRoutes(rg *gin.RouterGroup) {
	assistant := rg.Group("/assistant")
	{
		assistant.POST("/refresh", h.Refresh)
		assistant.POST("/ask", h.Ask)
	}
}

// Refresh re-exports the store data and pushes it to the assistant
func (h *AssistantHandler) Refresh(c *gin.Context) {
	paths, err := h.exporter.ExportAll(c.Request.Context())
	if err != nil {
		h.logger.Error("export for refresh failed", zap.Error(err))
		h.Error(c, dto.ErrCodeInternal, "export failed")
		return
	}
	if err := h.knowledge.UpdateKnowledge(c.Request.Context(), paths); err != nil {
		h.logger.Error("knowledge refresh failed", zap.Error(err))
		h.Error(c, dto.ErrCodeUpstream, "assistant knowledge update failed")
		return
	}
	h.Success(c, ExportResponse{Files: paths, KnowledgeUpdated: true})
}

// AskRequest carries a question for the assistant
type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// AskResponse carries the assistant's answer
type AskResponse struct {
	Answer string `json:"answer"`
}

// Ask forwards a question to the assistant. Provider failures are logged
// with full detail but surface as a non-technical apology.
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	answer, err := h.asker.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, appassistant.ErrNotConfigured) {
			h.Error(c, dto.ErrCodeConflict, "assistant is not set up yet, run a refresh first")
			return
		}
		h.logger.Error("assistant ask failed", zap.Error(err))
		h.Success(c, AskResponse{Answer: apologyMessage})
		return
	}
	h.Success(c, AskResponse{Answer: answer})
}
