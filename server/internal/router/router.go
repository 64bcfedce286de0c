// server/internal/router/router.go
package router

import (
	"net/http"
	"slices"
	"time"

	"experiment-go/server/internal/config"
	"experiment-go/server/internal/handlers"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Handlers groups the endpoint handlers the router mounts.
type Handlers struct {
	Data    *handlers.DataHandler
	Gaze    *handlers.GazeHandler
	Results *handlers.ResultsHandler
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again later."})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func Setup(log *zap.Logger, cfg *config.Config, h Handlers) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	// The experiment page is served from another origin.
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	router.Use(BodyLimit(cfg.Server.MaxBodyMB))

	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: uint(cfg.Server.RateLimitPerMinute),
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Servidor do experimento está funcionando.")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"database": cfg.Database.Enabled,
			"cloud":    cfg.Supabase.Enabled,
		})
	})

	router.POST("/salvar-dados", limiter, h.Data.SaveData)

	api := router.Group("/api/v1")
	{
		api.POST("/gaze/analyze", limiter, h.Gaze.Analyze)
	}

	results := router.Group("/resultados")
	{
		results.GET("", h.Results.ShowSummary)
		results.GET("/:participant_id", h.Results.ShowParticipant)
	}

	if cfg.Storage.ServeFiles {
		router.Static("/dados", cfg.Storage.DataDir)
	}

	return router
}
