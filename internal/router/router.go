package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/service"
)

// bankMaxAge is how long clients may cache the bank summary.
const bankMaxAge = 300

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	Bank    *handler.BankHandler
	Result  *handler.ResultHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// A nil limiter leaves session creation unthrottled.
func SetupRouter(
	tokens *service.TokenService,
	handlers *Handlers,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries a request ID in its metadata.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(accessLog())

	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		publicAPI.GET("/bank", middleware.CacheControl(bankMaxAge), handlers.Bank.GetBankInfo)
		publicAPI.GET("/system/status", middleware.NoStore(), handlers.System.SystemStatus)
		publicAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
		publicAPI.GET("/results", middleware.NoStore(), handlers.Result.ListResults)
		publicAPI.GET("/results/feed", handlers.Result.ResultsFeed)

		start := []gin.HandlerFunc{}
		if limiter != nil {
			start = append(start, limiter.Middleware())
		}
		start = append(start, handlers.Session.StartSession)
		publicAPI.POST("/sessions", start...)
	}

	// ─── 1. Session Group (Session Token) ──────────────────────────────
	sessionAPI := router.Group("/api/v1/sessions/:id")
	sessionAPI.Use(
		middleware.RequireSessionToken(tokens),
		middleware.RequireSessionOwner(),
		middleware.NoStore(),
	)
	{
		sessionAPI.GET("", handlers.Session.GetSession)
		sessionAPI.DELETE("", handlers.Session.CloseSession)
		sessionAPI.POST("/begin", handlers.Session.BeginExam)
		sessionAPI.POST("/answer", handlers.Session.SelectAnswer)
		sessionAPI.POST("/next", handlers.Session.NextQuestion)
		sessionAPI.POST("/previous", handlers.Session.PreviousQuestion)
		sessionAPI.POST("/submit", handlers.Session.SubmitSession)
		sessionAPI.POST("/retake", handlers.Session.RetakeSession)
	}

	// ─── 2. WebSocket Group (Session Token) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireSessionToken(tokens),
		middleware.RequireSessionOwner(),
	)
	{
		ws.GET("/sessions/:id/stream", handlers.WS.SessionStream)
	}

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	return router
}

// accessLog writes one line per request through the request-scoped logger.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := response.Logger(c)
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("Request handled")
	}
}
