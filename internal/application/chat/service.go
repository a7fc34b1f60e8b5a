// Package chat manages persisted conversations with the analyst assistant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

const (
	// RoleUser and RoleAssistant are the two message roles stored per exchange.
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxTitleLength = 60
)

// ErrConversationNotFound indicates the referenced conversation does not exist
var ErrConversationNotFound = errors.New("chat: conversation not found")

// ErrEmptyQuestion indicates a blank question was submitted
var ErrEmptyQuestion = errors.New("chat: question must not be empty")

// ErrEmptyTitle indicates a rename to a blank title
var ErrEmptyTitle = errors.New("chat: title must not be empty")

// Asker answers a free-form question about the synced store data
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ConversationRepository is the persistence surface the service needs
type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	List(ctx context.Context, userID string) ([]models.Conversation, error)
	Rename(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClearMessages(ctx context.Context, id uuid.UUID) error
	AppendMessage(ctx context.Context, msg *models.Message) error
}

// Service exposes conversation CRUD plus the ask flow that records both
// sides of each exchange.
type Service struct {
	conversations ConversationRepository
	asker         Asker
	logger        *zap.Logger
}

// NewService creates a chat Service
func NewService(conversations ConversationRepository, asker Asker, logger *zap.Logger) *Service {
	return &Service{
		conversations: conversations,
		asker:         asker,
		logger:        logger.Named("chat"),
	}
}

// CreateConversation starts a new conversation. An empty title gets a
// default; userID and aiModel are optional caller-supplied metadata.
func (s *Service) CreateConversation(ctx context.Context, title, userID, aiModel string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	conv := &models.Conversation{
		Title:   truncateTitle(title),
		UserID:  optional(userID),
		AIModel: optional(aiModel),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("chat: create conversation: %w", err)
	}
	return conv, nil
}

// RenameConversation changes a conversation's title
func (s *Service) RenameConversation(ctx context.Context, id uuid.UUID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if err := s.conversations.Rename(ctx, id, truncateTitle(title)); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// ClearMessages empties a conversation's history without deleting it
func (s *Service) ClearMessages(ctx context.Context, id uuid.UUID) error {
	if err := s.conversations.ClearMessages(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// GetConversation returns a conversation with its messages
func (s *Service) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// ListConversations returns conversations, most recently active first,
// optionally restricted to one user.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.conversations.List(ctx, userID)
}

// DeleteConversation removes a conversation and its messages
func (s *Service) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	if err := s.conversations.Delete(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// SendMessage records the user's question, asks the assistant, and records
// the answer. The user message is kept even when the assistant fails, so the
// conversation shows what was asked.
func (s *Service) SendMessage(ctx context.Context, conversationID uuid.UUID, question string) (*models.Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	userMsg := &models.Message{
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        question,
	}
	if err := s.conversations.AppendMessage(ctx, userMsg); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("chat: record question: %w", err)
	}

	answer, err := s.asker.Ask(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("chat: ask assistant: %w", err)
	}

	assistantMsg := &models.Message{
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        answer,
	}
	if err := s.conversations.AppendMessage(ctx, assistantMsg); err != nil {
		// the answer exists but could not be stored; surface it anyway
		s.logger.Error("failed to record assistant answer",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
		assistantMsg.ID = uuid.Nil
	}
	return assistantMsg, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= maxTitleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:maxTitleLength])
}
