package persistence

import (
	"context"
	"testing"

	"github.com/shopsync/backend/internal/domain/assistant"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantSessionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAssistantSessionRepository(db)
	ctx := context.Background()

	t.Run("load missing returns sentinel", func(t *testing.T) {
		_, err := repo.Load(ctx, assistant.SessionTypeOrderAnalyst)
		assert.ErrorIs(t, err, assistant.ErrIdentityNotFound)
	})

	t.Run("save then load round-trips durable fields", func(t *testing.T) {
		id := assistant.Identity{
			FileID:      "file-abc",
			AssistantID: "asst-abc",
			ThreadID:    "thread-abc",
		}
		require.NoError(t, repo.Save(ctx, assistant.SessionTypeOrderAnalyst, id))

		loaded, err := repo.Load(ctx, assistant.SessionTypeOrderAnalyst)
		require.NoError(t, err)
		assert.Equal(t, "file-abc", loaded.FileID)
		assert.Equal(t, "asst-abc", loaded.AssistantID)
		// thread ids are never persisted durably
		assert.Empty(t, loaded.ThreadID)
	})

	t.Run("save again keeps a single row per type", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, assistant.SessionTypeOrderAnalyst, assistant.Identity{
			FileID:      "file-new",
			AssistantID: "asst-new",
		}))

		var count int64
		require.NoError(t, db.Model(&models.AssistantSession{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		loaded, err := repo.Load(ctx, assistant.SessionTypeOrderAnalyst)
		require.NoError(t, err)
		assert.Equal(t, "file-new", loaded.FileID)
	})

	t.Run("clear removes the row", func(t *testing.T) {
		require.NoError(t, repo.Clear(ctx, assistant.SessionTypeOrderAnalyst))
		_, err := repo.Load(ctx, assistant.SessionTypeOrderAnalyst)
		assert.ErrorIs(t, err, assistant.ErrIdentityNotFound)
	})
}
