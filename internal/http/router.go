// Package http assembles the Gin engine: middleware chain, routes, and
// handler wiring.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/eokafor/go-pharmacy-backend/internal/config"
	"github.com/eokafor/go-pharmacy-backend/internal/http/handlers"
	"github.com/eokafor/go-pharmacy-backend/internal/http/middleware"
)

// maxBodyBytes bounds inbound request bodies. Chat turns are short;
// anything larger is abuse or a bug.
const maxBodyBytes = 64 << 10

// NewRouter builds the fully wired Gin engine.
func NewRouter(cfg config.Config, conversation handlers.Conversationalist, sessions handlers.SessionEnder) *gin.Engine {
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger())
	r.Use(middleware.Recovery())
	r.Use(bodyLimit(maxBodyBytes))
	r.Use(middleware.Metrics())

	if cfg.RateRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, 10*time.Minute)
		r.Use(limiter.Middleware())
	}

	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.SecurityHeaders())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	chat := &handlers.ChatHandler{Conversation: conversation, Sessions: sessions}

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/chat", chat.Chat)
	r.POST("/test", chat.Test)
	r.POST("/sessions/:id/end", chat.EndSession)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": "method_not_allowed", "message": "method not allowed"})
	})

	return r
}

// bodyLimit rejects request bodies larger than n bytes.
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
