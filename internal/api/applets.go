package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"applet_portal/internal/domain" // Importing domain models
	"applet_portal/internal/utils"  // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// ListAppletsHandler returns the applet catalog, cached in Redis. The
// catalog is immutable after seeding so a short TTL is plenty.
func ListAppletsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var applets []domain.Applet
		found, err := utils.GetCache(ctx, rdb, utils.CatalogCacheKey, &applets) // Try to get from cache
		if err == nil && found {
			c.JSON(http.StatusOK, applets) // Return cached catalog
			return
		}
		// If not in cache, fetch from DB
		if err := db.Find(&applets).Error; err != nil {
			logrus.WithField("error", err.Error()).Error("Failed to fetch applets")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applets"})
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.CatalogCacheKey, applets, 60*time.Second) // Cache the catalog
		c.JSON(http.StatusOK, applets)                                       // Return the catalog
	}
}

// GetAppletHandler returns a single applet by id
func GetAppletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var applet domain.Applet
		if err := db.First(&applet, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Unknown applet id, return not found
				c.JSON(http.StatusNotFound, gin.H{"error": "Applet not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch applet"})
			return
		}
		c.JSON(http.StatusOK, applet) // Return the applet
	}
}
