package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenRefill(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	// Separate bucket per key
	assert.True(t, l.Allow("b"))

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiter_ForgetsIdleVisitors(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	clock = clock.Add(idleTTL + time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(rps float64, burst int) *gin.Engine {
		r := gin.New()
		r.POST("/login", Middleware(rps, burst), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r
	}

	post := func(r *gin.Engine) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("limits", func(t *testing.T) {
		r := newRouter(0.001, 2)
		assert.Equal(t, http.StatusNoContent, post(r))
		assert.Equal(t, http.StatusNoContent, post(r))
		assert.Equal(t, http.StatusTooManyRequests, post(r))
	})

	t.Run("disabled", func(t *testing.T) {
		r := newRouter(0, 0)
		for i := 0; i < 20; i++ {
			assert.Equal(t, http.StatusNoContent, post(r))
		}
	})
}
