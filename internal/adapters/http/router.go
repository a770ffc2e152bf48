package http

import (
	"context"
	"time"

	"github.com/dkeye/Scribe/internal/app/hub"
	"github.com/dkeye/Scribe/internal/app/token"
	"github.com/dkeye/Scribe/internal/app/worker"
	"github.com/dkeye/Scribe/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultKeepalive = 15 * time.Second

// API holds the backend services the handlers drive.
type API struct {
	Tokens  *token.Issuer
	Hub     *hub.Hub
	Workers *worker.Supervisor
	Now     func() time.Time
}

// CORSMiddleware lets any origin call the API, as browser participants are
// served from a different host.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg config.ServerConfig, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if api.Now == nil {
		api.Now = time.Now
	}
	keepalive := cfg.Keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())

	h := &handlers{api: api, mediaURL: cfg.MediaURL, keepalive: keepalive, ctx: ctx}
	limiter := NewRateLimiter(cfg.RateLimit, cfg.RateInterval)

	g := r.Group("/api")
	g.POST("/token", limiter.Middleware(), h.issueToken)
	g.POST("/attach-transcriber", limiter.Middleware(), h.attachTranscriber)
	g.GET("/transcript-stream", h.transcriptStream)
	g.POST("/transcripts", h.ingestTranscript)
	g.GET("/rooms", h.listRooms)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Dur("keepalive", keepalive).Msg("router setup")
	return r
}
