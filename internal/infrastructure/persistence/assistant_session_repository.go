package persistence

import (
	"context"
	"errors"

	"github.com/shopsync/backend/internal/domain/assistant"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssistantSessionRepository is the durable identity store for assistant
// sessions. It never stores thread ids; those live in the ephemeral cache.
type AssistantSessionRepository struct {
	db *gorm.DB
}

// NewAssistantSessionRepository creates a new AssistantSessionRepository
func NewAssistantSessionRepository(db *gorm.DB) *AssistantSessionRepository {
	return &AssistantSessionRepository{db: db}
}

// Load returns the durable identity for a session type
func (r *AssistantSessionRepository) Load(ctx context.Context, sessionType string) (assistant.Identity, error) {
	var row models.AssistantSession
	if err := r.db.WithContext(ctx).Where("type = ?", sessionType).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return assistant.Identity{}, assistant.ErrIdentityNotFound
		}
		return assistant.Identity{}, err
	}
	return assistant.Identity{
		FileID:      row.FileID,
		AssistantID: row.AssistantID,
	}, nil
}

// Save upserts the identity for a session type, keeping one row per type
func (r *AssistantSessionRepository) Save(ctx context.Context, sessionType string, id assistant.Identity) error {
	row := models.AssistantSession{
		Type:        sessionType,
		FileID:      id.FileID,
		AssistantID: id.AssistantID,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type"}},
		DoUpdates: clause.AssignmentColumns([]string{"file_id", "assistant_id", "updated_at"}),
	}).Create(&row).Error
}

// Clear removes the stored identity for a session type
func (r *AssistantSessionRepository) Clear(ctx context.Context, sessionType string) error {
	return r.db.WithContext(ctx).
		Where("type = ?", sessionType).
		Delete(&models.AssistantSession{}).Error
}

var _ assistant.IdentityStore = (*AssistantSessionRepository)(nil)
