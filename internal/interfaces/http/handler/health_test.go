package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping() error { return f.err }

func TestHealthHandler(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/healthz", NewHealthHandler(&fakePinger{}, zap.NewNop()).Health)

		rec := doRequest(t, engine, http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("database down", func(t *testing.T) {
		engine := gin.New()
		engine.GET("/healthz", NewHealthHandler(&fakePinger{err: errors.New("refused")}, zap.NewNop()).Health)

		rec := doRequest(t, engine, http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
