package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("stores request-scoped logger in context", func(t *testing.T) {
		r := gin.New()
		r.Use(func(c *gin.Context) { c.Set("request_id", "req-1"); c.Next() })
		r.Use(GinMiddleware(zap.NewNop()))

		var seen *zap.Logger
		r.GET("/ping", func(c *gin.Context) {
			seen = GetGinLogger(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotNil(t, seen)
	})

	t.Run("recovery converts panic to 500", func(t *testing.T) {
		r := gin.New()
		r.Use(Recovery(zap.NewNop()))
		r.GET("/boom", func(c *gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
