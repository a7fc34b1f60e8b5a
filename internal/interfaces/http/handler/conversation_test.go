package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopsync/backend/internal/application/chat"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubAsker struct {
	answer string
	err    error
}

func (s *stubAsker) Ask(context.Context, string) (string, error) {
	return s.answer, s.err
}

func newConversationRouter(t *testing.T, asker chat.Asker) *gin.Engine {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Conversation{}, &models.Message{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	service := chat.NewService(persistence.NewGormConversationRepository(db), asker, zap.NewNop())
	engine := gin.New()
	NewConversationHandler(service, zap.NewNop()).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func putJSON(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestConversationHandler_CRUD(t *testing.T) {
	engine := newConversationRouter(t, &stubAsker{answer: "12 orders."})

	rec := postJSON(t, engine, "/api/v1/conversations",
		`{"title":"March numbers","user_id":"alice","ai_model":"gpt-4o"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data ConversationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "March numbers", created.Data.Title)
	require.NotEqual(t, uuid.Nil, created.Data.ID)
	require.NotNil(t, created.Data.UserID)
	assert.Equal(t, "alice", *created.Data.UserID)
	require.NotNil(t, created.Data.AIModel)
	assert.Equal(t, "gpt-4o", *created.Data.AIModel)

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/conversations")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []ConversationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/conversations?user_id=nobody")
	require.Equal(t, http.StatusOK, rec.Code)
	listed.Data = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed.Data)

	rec = putJSON(t, engine, "/api/v1/conversations/"+created.Data.ID.String(),
		`{"title":"March order numbers"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = postJSON(t, engine, "/api/v1/conversations/"+created.Data.ID.String()+"/messages",
		`{"question":"How many orders in March?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var replied struct {
		Data MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replied))
	assert.Equal(t, chat.RoleAssistant, replied.Data.Role)
	assert.Equal(t, "12 orders.", replied.Data.Content)

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/conversations/"+created.Data.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched struct {
		Data ConversationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "March order numbers", fetched.Data.Title)
	require.Len(t, fetched.Data.Messages, 2)
	assert.Equal(t, chat.RoleUser, fetched.Data.Messages[0].Role)
	assert.Equal(t, chat.RoleAssistant, fetched.Data.Messages[1].Role)

	rec = doRequest(t, engine, http.MethodDelete, "/api/v1/conversations/"+created.Data.ID.String()+"/messages")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, engine, http.MethodGet, "/api/v1/conversations/"+created.Data.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	fetched.Data = ConversationResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Empty(t, fetched.Data.Messages)

	rec = doRequest(t, engine, http.MethodDelete, "/api/v1/conversations/"+created.Data.ID.String())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/conversations/"+created.Data.ID.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConversationHandler_Errors(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{})
		rec := doRequest(t, engine, http.MethodGet, "/api/v1/conversations/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rename of unknown conversation", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{})
		rec := putJSON(t, engine, "/api/v1/conversations/"+uuid.NewString(), `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rename without a title", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{})
		rec := putJSON(t, engine, "/api/v1/conversations/"+uuid.NewString(), `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("clear of unknown conversation", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{})
		rec := doRequest(t, engine, http.MethodDelete, "/api/v1/conversations/"+uuid.NewString()+"/messages")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("message to unknown conversation", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{})
		rec := postJSON(t, engine, "/api/v1/conversations/"+uuid.NewString()+"/messages",
			`{"question":"hello"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("assistant failure becomes an apology", func(t *testing.T) {
		engine := newConversationRouter(t, &stubAsker{err: errors.New("timeout polling run")})

		rec := postJSON(t, engine, "/api/v1/conversations", `{"title":"t"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		var created struct {
			Data ConversationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		rec = postJSON(t, engine, "/api/v1/conversations/"+created.Data.ID.String()+"/messages",
			`{"question":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var replied struct {
			Data MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &replied))
		assert.Equal(t, apologyMessage, replied.Data.Content)
	})
}
