package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(GinMiddleware(log))
	router.Use(func(c *gin.Context) {
		ctx := WithRequestID(c.Request.Context(), "req-7")
		c.Request = c.Request.WithContext(WithIdentity(ctx, Identity{Email: "tenant@example.com", Role: "USER"}))
		c.Next()
	})
	router.GET("/api/v1/invoices/:id", func(c *gin.Context) {
		FromContext(c.Request.Context()).Debug("handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/abc?page=1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	access := logs.FilterMessage("HTTP request").All()
	require.Len(t, access, 1)
	fields := access[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, access[0].Level)
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/invoices/abc", fields["path"])
	assert.Equal(t, "/api/v1/invoices/:id", fields["route"])
	assert.Equal(t, "page=1", fields["query"])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "tenant@example.com", fields["email"])
	assert.EqualValues(t, http.StatusOK, fields["status"])

	handler := logs.FilterMessage("handler").All()
	require.Len(t, handler, 1)
	assert.Equal(t, "req-7", handler[0].ContextMap()["request_id"])
}

func TestGinMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusCreated, zapcore.InfoLevel},
		{http.StatusConflict, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			log, logs := observed()
			router := gin.New()
			router.Use(GinMiddleware(log))
			router.POST("/x", func(c *gin.Context) { c.Status(tt.status) })

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.level, logs.All()[0].Level)
		})
	}
}

func TestRecovery(t *testing.T) {
	log, logs := observed()
	router := gin.New()
	router.Use(Recovery(log))
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "req-panic"))
		c.Next()
	})
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"internal server error","request_id":"req-panic"}}`, w.Body.String())

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-panic", entries[0].ContextMap()["request_id"])
}
