package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	t.Run("console to stdout", func(t *testing.T) {
		l, err := New(DefaultConfig())
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("unwritable file", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "sync.log")})
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.in), tt.in)
	}
}

func TestWithLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	debug := WithLevel(base, "debug")
	debug.Debug("visible")
	base.Debug("hidden")

	errorOnly := WithLevel(base, "error").With(zap.String("k", "v"))
	errorOnly.Info("suppressed")
	errorOnly.Error("kept")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
	assert.Equal(t, "kept", logs.All()[1].Message)
	assert.Equal(t, "v", logs.All()[1].ContextMap()["k"])
	assert.Same(t, base, WithLevel(base, ""))
}

func TestContextHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	assert.NotNil(t, FromContext(context.Background()))

	ctx, l := WithEvent(context.Background(), base, "evt-1", "order")
	l.Info("processing")

	assert.Equal(t, "evt-1", GetEventID(ctx))
	assert.Equal(t, "order", GetEntity(ctx))
	assert.Same(t, l, FromContext(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, map[string]interface{}{"event_id": "evt-1", "entity": "order"}, logs.All()[0].ContextMap())

	ctx, _ = WithRequestID(ctx, base, "req-9")
	assert.Equal(t, "req-9", GetRequestID(ctx))
	assert.Same(t, base, WithTraceContext(ctx, base))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "req-1")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.POST("/consumers/:entity", func(c *gin.Context) {
		assert.NotNil(t, GetGinLogger(c))
		assert.Equal(t, "req-1", GetRequestID(c.Request.Context()))
		c.Status(http.StatusBadRequest)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/consumers/customer", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.Equal(t, "customer", entry.ContextMap()["entity"])
	assert.EqualValues(t, http.StatusBadRequest, entry.ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, 10*time.Millisecond)
	ctx, _ := WithEvent(context.Background(), zap.NewNop(), "evt-2", "product")
	sql := func() (string, int64) { return "INSERT INTO sync_logs", 1 }

	gl.Trace(ctx, time.Now(), sql, nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	gl.Trace(ctx, time.Now(), sql, errors.New("constraint"))
	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, errors.New("ignored"))

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "SQL query", logs.All()[0].Message)
	assert.Equal(t, "Slow SQL", logs.All()[1].Message)
	assert.Equal(t, "SQL error", logs.All()[2].Message)
	assert.Equal(t, "evt-2", logs.All()[0].ContextMap()["event_id"])
	assert.Equal(t, "product", logs.All()[0].ContextMap()["entity"])
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("unknown"))
}
