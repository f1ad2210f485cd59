package api

import (
	"net/http" // HTTP status codes

	"applet_portal/internal/domain" // Importing domain models
	"applet_portal/internal/utils"  // Session token helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// LoginRequest carries the wallet address reported by the browser wallet
type LoginRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"` // Wallet address must be provided
}

// LoginResponse is the user record plus an advisory session token
type LoginResponse struct {
	domain.User
	Token string `json:"token,omitempty"` // Session token (identity still comes from the wallet header)
}

// LoginHandler creates the user on first login and returns it
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address is required"})
			return
		}
		var user domain.User // Find or lazily create the user
		if err := db.Where(domain.User{WalletAddress: req.WalletAddress}).FirstOrCreate(&user).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"wallet_address": req.WalletAddress,
				"error":          err.Error(),
			}).Error("Login failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
			return
		}
		resp := LoginResponse{User: user}
		if jwtSecret != "" {
			// Token generation failure is not fatal; the header remains authoritative
			if token, err := utils.GenerateSessionToken(user.WalletAddress, jwtSecret); err == nil {
				resp.Token = token
			}
		}
		c.JSON(http.StatusOK, resp) // Return the user record
	}
}
