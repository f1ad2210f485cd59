package api

import (
	"applet_portal/internal/middleware" // Custom package for middleware
	"applet_portal/internal/realtime"   // Websocket hub
	"applet_portal/internal/service"    // Execution service

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RouterOptions carries the wiring the router needs beyond its stores.
type RouterOptions struct {
	JWTSecret string // Session token secret (empty disables tokens)
	RateLimit int    // Requests per second per client (0 disables)
}

// NewRouter assembles the portal's HTTP surface: the REST API under
// /api and the realtime socket at /ws.
func NewRouter(db *gorm.DB, rdb *redis.Client, svc *service.ExecutionService, hub *realtime.Hub, opts RouterOptions) *gin.Engine {
	r := gin.Default() // Gin router instance
	r.Use(middleware.CORS())

	api := r.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(opts.RateLimit)))
	}

	// Auth routes
	api.POST("/auth/login", LoginHandler(db, opts.JWTSecret)) // First-login upsert

	// Applet catalog (public, read-only)
	api.GET("/applets", ListAppletsHandler(db, rdb)) // List catalog
	api.GET("/applets/:id", GetAppletHandler(db))    // Single applet

	// Execution routes. Create carries the wallet in its body; list and
	// clear resolve it from the identity header.
	api.POST("/executions", CreateExecutionHandler(svc, rdb))
	walletGroup := api.Group("")
	walletGroup.Use(middleware.RequireWallet(opts.JWTSecret))
	walletGroup.GET("/executions", ListExecutionsHandler(svc, rdb))      // Execution history
	walletGroup.DELETE("/executions", ClearExecutionsHandler(svc, rdb))  // Clear history
	walletGroup.GET("/settings", GetSettingsHandler(db))                 // Read settings (lazy defaults)
	walletGroup.PUT("/settings", SaveSettingsHandler(db))                // Upsert settings

	// Realtime surface
	r.GET("/ws", gin.WrapH(hub)) // Websocket rooms keyed by wallet address

	return r
}
