package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation groups the question/answer exchanges a user has with the
// analyst assistant. UserID is the caller-supplied owner identifier (identity
// management lives outside this service); AIModel records which model the
// conversation was opened against.
type Conversation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"size:255"`
	UserID    *string   `gorm:"size:64;index"`
	AIModel   *string   `gorm:"size:64"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Message is a single utterance in a conversation, role "user" or "assistant".
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;index;not null"`
	Role           string    `gorm:"size:16;not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}
