package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("clinic-a"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("clinic-a"))

	// An unrelated key has its own bucket.
	assert.True(t, rl.Allow("clinic-b"))

	// The window refills.
	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("clinic-a"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)

	assert.Equal(t, 5, rl.Remaining("fresh"))

	rl.Allow("used")
	rl.Allow("used")
	assert.Equal(t, 3, rl.Remaining("used"))
}

func TestRateLimiter_Concurrent(t *testing.T) {
	rl := NewRateLimiter(100, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- rl.Allow("shared")
		}()
	}
	wg.Wait()
	close(allowed)

	passed := 0
	for ok := range allowed {
		if ok {
			passed++
		}
	}
	assert.Equal(t, 100, passed)
}

func newRateLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/appointments", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestRateLimit_Middleware(t *testing.T) {
	r := newRateLimitedRouter(NewRateLimiter(2, time.Minute))

	do := func(clinicID string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appointments", nil)
		if clinicID != "" {
			req.Header.Set("X-Clinic-ID", clinicID)
		}
		r.ServeHTTP(w, req)
		return w
	}

	first := do("")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))

	second := do("")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := do("")
	require.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.Contains(t, third.Body.String(), "RATE_LIMIT_EXCEEDED")

	// A clinic header scopes requests to their own bucket.
	assert.Equal(t, http.StatusOK, do("b9d2f0a1-5a7e-4f9a-9c3b-2d8e6f4a1b0c").Code)
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(1, time.Minute)

	r := gin.New()
	r.Use(RateLimitByKey(limiter, func(c *gin.Context) string {
		return c.GetHeader("X-Actor")
	}))
	r.GET("/badge", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(actor string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/badge", nil)
		req.Header.Set("X-Actor", actor)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("dr-lee"))
	assert.Equal(t, http.StatusTooManyRequests, do("dr-lee"))
	assert.Equal(t, http.StatusOK, do("dr-chen"))
}
