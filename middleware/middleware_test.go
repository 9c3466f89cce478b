package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/taskquest/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(utils.ContextRequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderXRequestID)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 129))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, strings.Repeat("x", 129), w.Header().Get(HeaderXRequestID))
}

func TestRateLimit_PerSubject(t *testing.T) {
	r := gin.New()
	r.POST("/s/:subject", RateLimit(4), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	hit := func(subject string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/s/"+subject, nil))
		return w.Code
	}

	// burst of perMinute/2
	assert.Equal(t, http.StatusNoContent, hit("a"))
	assert.Equal(t, http.StatusNoContent, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusNoContent, hit("b"))
}

func TestLimiterSet_DropsIdleEntries(t *testing.T) {
	set := &limiterSet{limiters: map[string]*rateLimiter{}, limit: 1, burst: 1}
	start := time.Now()

	assert.True(t, set.allow("k1", start))
	assert.True(t, set.allow("k2", start))
	assert.Len(t, set.limiters, 2)

	assert.True(t, set.allow("k3", start.Add(limiterIdleTTL+time.Second)))
	assert.Len(t, set.limiters, 1)
}
