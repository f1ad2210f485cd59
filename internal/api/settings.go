package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"applet_portal/internal/domain"     // Importing domain models
	"applet_portal/internal/middleware" // Wallet identity helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// findUser loads the user for the request's wallet address
func findUser(c *gin.Context, db *gorm.DB) (*domain.User, bool) {
	walletAddress := middleware.WalletAddress(c)
	var user domain.User
	if err := db.First(&user, "wallet_address = ?", walletAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		}
		return nil, false
	}
	return &user, true
}

// GetSettingsHandler returns the user's settings, creating the row with
// defaults on first read.
func GetSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		var settings domain.Settings
		err := db.First(&settings, "user_id = ?", user.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// First read creates the defaults
			settings = domain.DefaultSettings(user.ID)
			if err := db.Create(&settings).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id": user.ID,
					"error":   err.Error(),
				}).Error("Failed to create default settings")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
				return
			}
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
			return
		}
		c.JSON(http.StatusOK, settings) // Return the settings
	}
}

// SaveSettingsHandler upserts the user's settings. At most one row per
// user; the request body is merged over the stored row, so fields
// omitted from a partial payload keep their current values.
func SaveSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		var existing domain.Settings
		err := db.First(&existing, "user_id = ?", user.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Create the row first so Save runs a full UPDATE; a direct
			// create would let column defaults clobber false toggles
			existing = domain.DefaultSettings(user.ID)
			if err := db.Create(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
				return
			}
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
		updated := existing // Bind over the stored row; absent fields stay put
		if err := c.ShouldBindJSON(&updated); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload"})
			return
		}
		updated.ID = existing.ID // The row identity is not client-writable
		updated.UserID = user.ID
		if err := db.Save(&updated).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Error("Failed to save settings")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
			return
		}
		c.JSON(http.StatusOK, updated) // Return the stored settings
	}
}
