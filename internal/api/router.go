package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"wellbeing-reminder-backend/config"
	"wellbeing-reminder-backend/internal/mw"
	"wellbeing-reminder-backend/internal/reminder"
	"wellbeing-reminder-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, b *reminder.Broadcaster, sch *reminder.Scheduler, settings *reminder.SettingsProvider) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, b, sch, settings)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Cache for the read-heavy admin listings.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 5*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.PUT("/devices", handler.PutDevice)
		api.DELETE("/devices", handler.DeleteDevice)

		admin := api.Group("/admin")
		{
			admin.GET("/devices", caching, handler.GetDevices)
			admin.GET("/trackers", caching, handler.GetTrackers)
			admin.GET("/stats", caching, handler.GetStats)
			admin.GET("/settings", handler.GetSettings)
			admin.PUT("/settings", handler.PutSettings)
			admin.POST("/broadcast", handler.PostBroadcast)
			admin.POST("/reminders/:kind/run", handler.PostRunReminder)
		}
	}

	return r
}
