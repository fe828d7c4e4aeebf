package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(false, "memodeck-test", "http://localhost:14268/api/traces")
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background(), tp))
}

func TestGinMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())

	var spanCtx trace.SpanContext
	r.GET("/api/decks/:id", func(c *gin.Context) {
		spanCtx = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/decks/3", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	// 未注册 TracerProvider 时为空 span
	assert.False(t, spanCtx.IsSampled())
}
