package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Debug      bool
	EnableCORS bool
}

// NewRouter mounts every route of the assistant on a fresh gin engine.
// Metrics are served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, cfg RouterConfig, log *slog.Logger) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(requestLogger(log))
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic while serving request", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}))
	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
		engine.Use(cors.New(corsConfig))
	}

	api := engine.Group("/api")
	api.GET("/messages", h.ListMessages)
	api.POST("/messages", h.PostMessage)
	api.POST("/webhook", h.Webhook)
	api.GET("/whatsapp/status", h.SenderStatus)

	reminders := api.Group("/reminders")
	{
		reminders.GET("", h.ListReminders)
		reminders.POST("", h.CreateReminder)
		reminders.POST("/:id/complete", h.CompleteReminder)
		reminders.POST("/:id/share", h.ShareReminder)
	}

	api.GET("/preferences/:phone", h.GetPreference)
	api.PUT("/preferences/:phone", h.PutPreference)

	calendars := api.Group("/calendars")
	{
		calendars.GET("", h.ListCalendars)
		calendars.POST("", h.ConnectCalendar)
		calendars.GET("/:id/events", h.CalendarEvents)
	}
	api.GET("/calendar-providers", h.CalendarProviders)

	api.GET("/analytics/:phone", h.Analytics)
	api.GET("/health", h.Health)

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return engine
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
