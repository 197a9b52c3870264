package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitevis/internal/middleware"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	router := gin.New()
	router.Use(middleware.RequestLogger(zerolog.New(&buf)))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["request_id"])
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, http.StatusNoContent, line["status"])

	req, _ = http.NewRequest("GET", "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := middleware.NewRateLimiter(1, 2)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(limiter.Middleware())
	router.POST("/edit", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	do := func(user string) int {
		req, _ := http.NewRequest("POST", "/edit", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusAccepted, do("a"))
	assert.Equal(t, http.StatusAccepted, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusAccepted, do("b"))

	limiter.Forget("a")
	assert.Equal(t, http.StatusAccepted, do("a"))
}

func TestRateLimiter_Prune(t *testing.T) {
	slow := middleware.NewRateLimiter(1, 2)
	assert.True(t, slow.Allow("a"))
	assert.Equal(t, 1, slow.Prune(), "a drained bucket is kept")

	fast := middleware.NewRateLimiter(6_000_000, 1)
	assert.True(t, fast.Allow("a"))
	fast.Allow("b")
	assert.Eventually(t, func() bool { return fast.Prune() == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, fast.Len())
}
