package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"applet_portal/internal/api"      // Custom package for API handlers
	"applet_portal/internal/config"   // Custom package for configuration
	"applet_portal/internal/domain"   // Domain models
	"applet_portal/internal/realtime" // Websocket hub
	"applet_portal/internal/service"  // Execution service
	"applet_portal/internal/utils"    // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Realtime hub delivers execution updates to wallet rooms
	hub := realtime.NewHub()

	// Settlement publishes through the hub and drops the wallet's cached
	// history so polls see the settled status too
	publisher := service.PublisherFunc(func(walletAddress string, execution *domain.Execution) {
		hub.Publish(walletAddress, execution)
		_ = utils.DeleteCache(context.Background(), redisClient, utils.ExecutionCacheKey(walletAddress))
	})
	svc := service.NewExecutionService(db, publisher)

	// Setup Gin
	r := api.NewRouter(db, redisClient, svc, hub, api.RouterOptions{
		JWTSecret: cfg.JWTSecret, // Session token secret
		RateLimit: cfg.RateLimit, // Requests per second per client
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
