package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-access-backend/config"
	"parking-access-backend/internal/access"
	"parking-access-backend/internal/mw"
	"parking-access-backend/internal/notification"
	"parking-access-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, engine *access.Engine, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, engine, webpushOptions, notifier)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Audit listings tolerate a few seconds of staleness; vehicle status and
	// access processing never go through the cache.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*time.Minute)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/access", handler.ProcessAccess)
		api.GET("/access/vehicle/:plate/status", handler.GetVehicleStatus)
		api.GET("/access/audit", caching, handler.GetAuditLogs)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
