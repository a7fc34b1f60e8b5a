package models

import "time"

// AssistantSession is the durable record of provider-side identifiers for
// one assistant session type. The unique index on Type keeps it to one row
// per session type; thread ids are deliberately not stored here because
// threads are short-lived and belong in the ephemeral cache.
type AssistantSession struct {
	ID          uint   `gorm:"primaryKey"`
	Type        string `gorm:"size:64;uniqueIndex;not null"`
	FileID      string `gorm:"size:128"`
	AssistantID string `gorm:"size:128"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for AssistantSession
func (AssistantSession) TableName() string {
	return "assistant_sessions"
}
