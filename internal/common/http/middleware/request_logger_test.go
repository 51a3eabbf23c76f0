package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mathtutor/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.SetGlobal(logger.NewWithZap(zap.New(core)))
	t.Cleanup(func() { logger.SetGlobal(prev) })

	router := gin.New()
	router.Use(TraceContextMiddleware(), RequestLogger())
	router.GET("/rpc/:procedure", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rpc/healthcheck", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/rpc/:procedure", first["path"])
	assert.Equal(t, "healthcheck", first["procedure"])
	assert.Equal(t, int64(http.StatusOK), first["status"])
	assert.NotEmpty(t, first["trace_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[1].ContextMap()["status"])
}
