package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Scribe/internal/app/hub"
	"github.com/dkeye/Scribe/internal/app/token"
	"github.com/dkeye/Scribe/internal/app/worker"
	"github.com/dkeye/Scribe/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	req := require.New(t)
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))
	req.True(rl.Allow("b"))

	now = now.Add(61 * time.Second)
	req.True(rl.Allow("a"))
}

func TestRateLimiter_AppliedToTokenEndpoint(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)
	issuer, err := token.NewIssuer("devkey", "secret", time.Hour)
	req.NoError(err)
	h := hub.New(1, nil)
	api := &API{Tokens: issuer, Hub: h, Workers: worker.New(worker.Config{}, issuer, h)}
	r := SetupRouter(context.Background(), config.ServerConfig{Mode: "test", RateLimit: 1, RateInterval: time.Minute}, api)

	post := func() int {
		w := httptest.NewRecorder()
		rq := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{"roomId":"standup","displayName":"Alice"}`))
		rq.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, rq)
		return w.Code
	}
	req.Equal(http.StatusOK, post())
	req.Equal(http.StatusTooManyRequests, post())

	// Reads are not limited.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms", nil))
	req.Equal(http.StatusOK, w.Code)
}
