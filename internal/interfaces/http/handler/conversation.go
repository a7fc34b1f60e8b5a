package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/application/chat"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"github.com/shopsync/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// ConversationHandler handles conversation API endpoints
type ConversationHandler struct {
	BaseHandler
	service *chat.Service
	logger  *zap.Logger
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(service *chat.Service, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{service: service, logger: logger}
}

// RegisterRoutes registers conversation routes
func (h *ConversationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conversations := rg.Group("/conversations")
	{
		conversations.POST("", h.Create)
		conversations.GET("", h.List)
		conversations.GET("/:id", h.Get)
		conversations.PUT("/:id", h.Rename)
		conversations.DELETE("/:id", h.Delete)
		conversations.POST("/:id/messages", h.SendMessage)
		conversations.DELETE("/:id/messages", h.ClearMessages)
	}
}

// ConversationResponse is the wire form of a conversation
type ConversationResponse struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	UserID    *string           `json:"user_id,omitempty"`
	AIModel   *string           `json:"ai_model,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []MessageResponse `json:"messages,omitempty"`
}

// MessageResponse is the wire form of a message
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toConversationResponse(conv *models.Conversation, withMessages bool) ConversationResponse {
	resp := ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		UserID:    conv.UserID,
		AIModel:   conv.AIModel,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if withMessages {
		resp.Messages = make([]MessageResponse, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			resp.Messages = append(resp.Messages, toMessageResponse(&msg))
		}
	}
	return resp
}

func toMessageResponse(msg *models.Message) MessageResponse {
	return MessageResponse{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

// CreateConversationRequest starts a new conversation
type CreateConversationRequest struct {
	Title   string `json:"title"`
	UserID  string `json:"user_id"`
	AIModel string `json:"ai_model"`
}

// Create starts a new conversation
func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), req.Title, req.UserID, req.AIModel)
	if err != nil {
		h.logger.Error("conversation create failed", zap.Error(err))
		h.InternalError(c, "could not create conversation")
		return
	}
	h.Created(c, toConversationResponse(conv, false))
}

// List returns conversations, most recently active first. The optional
// user_id query parameter restricts the list to one user.
func (h *ConversationHandler) List(c *gin.Context) {
	convs, err := h.service.ListConversations(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		h.logger.Error("conversation list failed", zap.Error(err))
		h.InternalError(c, "could not list conversations")
		return
	}

	out := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, toConversationResponse(&convs[i], false))
	}
	h.Success(c, out)
}

// Get returns one conversation with its messages
func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid conversation id")
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			h.NotFound(c, "conversation not found")
			return
		}
		h.logger.Error("conversation get failed", zap.Error(err))
		h.InternalError(c, "could not load conversation")
		return
	}
	h.Success(c, toConversationResponse(conv, true))
}

// RenameConversationRequest changes a conversation's title
type RenameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// Rename changes a conversation's title
func (h *ConversationHandler) Rename(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid conversation id")
		return
	}

	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	if err := h.service.RenameConversation(c.Request.Context(), id, req.Title); err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			h.NotFound(c, "conversation not found")
		case errors.Is(err, chat.ErrEmptyTitle):
			h.BadRequest(c, "title must not be empty")
		default:
			h.logger.Error("conversation rename failed", zap.Error(err))
			h.InternalError(c, "could not rename conversation")
		}
		return
	}
	h.NoContent(c)
}

// ClearMessages empties a conversation's history, keeping the conversation
func (h *ConversationHandler) ClearMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.service.ClearMessages(c.Request.Context(), id); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			h.NotFound(c, "conversation not found")
			return
		}
		h.logger.Error("conversation clear failed", zap.Error(err))
		h.InternalError(c, "could not clear conversation")
		return
	}
	h.NoContent(c)
}

// Delete removes a conversation and its messages
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), id); err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			h.NotFound(c, "conversation not found")
			return
		}
		h.logger.Error("conversation delete failed", zap.Error(err))
		h.InternalError(c, "could not delete conversation")
		return
	}
	h.NoContent(c)
}

// SendMessageRequest carries a question for an existing conversation
type SendMessageRequest struct {
	Question string `json:"question" binding:"required"`
}

// SendMessage records a question, asks the assistant and returns the answer.
// Provider failures surface as an apology message, not an error.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid conversation id")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), id, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationNotFound):
			h.NotFound(c, "conversation not found")
		case errors.Is(err, chat.ErrEmptyQuestion):
			h.BadRequest(c, "question must not be empty")
		default:
			h.logger.Error("send message failed", zap.Error(err))
			h.Success(c, MessageResponse{Role: chat.RoleAssistant, Content: apologyMessage})
		}
		return
	}
	h.Success(c, toMessageResponse(msg))
}
