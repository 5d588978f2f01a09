package httpapi

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/westend/backend/internal/chatbot"
	"github.com/westend/backend/internal/config"
	"github.com/westend/backend/internal/db"
	"github.com/westend/backend/internal/http/handlers"
	"github.com/westend/backend/internal/http/middleware"
	"github.com/westend/backend/internal/metrics"
	"github.com/westend/backend/internal/quota"

	_ "github.com/westend/backend/docs"
)

func Router(cfg config.Config, store *db.Store, chat *chatbot.Service, usage quota.Limiter, notifier chatbot.Notifier, limiter *middleware.IPRateLimiter, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(metrics.Middleware())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		for _, o := range strings.Split(cfg.CORSAllowed, ",") {
			if o = strings.TrimSpace(o); o != "" {
				corsCfg.AllowOrigins = append(corsCfg.AllowOrigins, o)
			}
		}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Chat:         chat,
		Catalog:      store,
		Leads:        store,
		Intents:      store,
		Usage:        usage,
		DB:           store,
		Notifier:     notifier,
		SupportEmail: cfg.SupportEmail,
		Validator:    validator.New(),
		Logger:       logger,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limited := limiter.Middleware()

	api := r.Group("/api")
	{
		api.GET("/verticals", h.VerticalsList)
		api.GET("/products", h.ProductsList)
		api.GET("/products/:id", h.ProductDetails)
		api.POST("/contact", limited, h.ContactCreate)
		api.POST("/quote-request", limited, h.QuoteCreate)
	}

	chatGroup := api.Group("/chat")
	chatGroup.Use(limited)
	{
		chatGroup.POST("/message", h.ChatMessage)
		chatGroup.POST("/sessions", h.ChatSessionCreate)
		chatGroup.GET("/sessions/:id", h.ChatSessionGet)
		chatGroup.DELETE("/sessions/:id", h.ChatSessionEnd)
		chatGroup.GET("/history/:id", h.ChatHistory)
		chatGroup.POST("/ticket", h.ChatTicket)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.GET("/intents", h.IntentsList)
		admin.PUT("/intents/:name", h.IntentUpsert)
		admin.POST("/cache/purge", h.CachePurge)
		admin.GET("/usage", h.UsageGet)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
