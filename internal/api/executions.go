package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"applet_portal/internal/domain"     // Importing domain models
	"applet_portal/internal/middleware" // Wallet identity helpers
	"applet_portal/internal/service"    // Execution service
	"applet_portal/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// CreateExecutionRequest invokes an applet on behalf of a wallet
type CreateExecutionRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"` // Wallet address must be provided
	AppletID      string `json:"appletId" binding:"required"`      // Applet id must be provided
}

// ListExecutionsHandler returns the wallet's recent executions, newest
// first, cached in Redis. Unknown wallets get an empty list.
func ListExecutionsHandler(svc *service.ExecutionService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletAddress := middleware.WalletAddress(c) // Wallet resolved by middleware
		ctx := context.Background()                        // Context for Redis operations
		cacheKey := utils.ExecutionCacheKey(walletAddress)
		var executions []domain.Execution
		found, err := utils.GetCache(ctx, rdb, cacheKey, &executions) // Try to get from cache
		if err == nil && found {
			c.JSON(http.StatusOK, executions) // Return cached history
			return
		}
		executions, err = svc.List(c.Request.Context(), walletAddress)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"wallet_address": walletAddress,
				"error":          err.Error(),
			}).Error("Failed to fetch executions")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch executions"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, executions, 30*time.Second) // Cache the history
		c.JSON(http.StatusOK, executions)                                 // Return the history
	}
}

// CreateExecutionHandler records a pending execution and returns it
// immediately; settlement happens asynchronously.
func CreateExecutionHandler(svc *service.ExecutionService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateExecutionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		execution, err := svc.Create(c.Request.Context(), req.WalletAddress, req.AppletID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrAppletNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Applet not found"})
			case errors.Is(err, service.ErrValidation):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			default:
				logrus.WithFields(logrus.Fields{
					"wallet_address": req.WalletAddress,
					"applet_id":      req.AppletID,
					"error":          err.Error(),
				}).Error("Failed to create execution")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create execution"})
			}
			return
		}
		// Invalidate the wallet's cached history
		_ = utils.DeleteCache(context.Background(), rdb, utils.ExecutionCacheKey(req.WalletAddress))
		c.JSON(http.StatusOK, execution) // Return the pending record
	}
}

// ClearExecutionsHandler deletes the wallet's execution history
func ClearExecutionsHandler(svc *service.ExecutionService, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletAddress := middleware.WalletAddress(c) // Wallet resolved by middleware
		if err := svc.Clear(c.Request.Context(), walletAddress); err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"wallet_address": walletAddress,
				"error":          err.Error(),
			}).Error("Failed to clear executions")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
			return
		}
		// Invalidate the wallet's cached history
		_ = utils.DeleteCache(context.Background(), rdb, utils.ExecutionCacheKey(walletAddress))
		c.JSON(http.StatusOK, gin.H{"message": "History cleared"}) // Return success response
	}
}
