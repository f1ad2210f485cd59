package domain

// Settings Model. One row per user, created lazily with defaults on
// first read and upserted on save.
type Settings struct {
	ID     uint `gorm:"primaryKey" json:"id"` // Primary key
	UserID uint `gorm:"uniqueIndex" json:"userId"` // Foreign key to User (at most one row per user)

	// Notification settings
	EmailNotifications bool `gorm:"default:true" json:"emailNotifications"`  // Email notifications toggle
	ExecutionAlerts    bool `gorm:"default:true" json:"executionAlerts"`     // Execution status alerts toggle
	MarketplaceUpdates bool `gorm:"default:false" json:"marketplaceUpdates"` // Marketplace news toggle
	SecurityAlerts     bool `gorm:"default:true" json:"securityAlerts"`      // Security alerts toggle

	// Privacy settings
	ShowBalance      bool `gorm:"default:true" json:"showBalance"`      // Show wallet balance toggle
	ShowActivity     bool `gorm:"default:true" json:"showActivity"`     // Show activity feed toggle
	AnalyticsEnabled bool `gorm:"default:true" json:"analyticsEnabled"` // Usage analytics toggle

	// Network settings
	Network             string  `gorm:"default:mainnet" json:"network"`          // Selected network
	AutoGasOptimization bool    `gorm:"default:true" json:"autoGasOptimization"` // Automatic gas optimization toggle
	MaxGasPrice         float64 `gorm:"default:500" json:"maxGasPrice"`          // Maximum accepted gas price in WEI

	// Advanced settings
	SlippageTolerance   float64 `gorm:"default:0.5" json:"slippageTolerance"`  // Slippage tolerance percentage
	TransactionDeadline int     `gorm:"default:20" json:"transactionDeadline"` // Transaction deadline in minutes
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings(userID uint) Settings {
	return Settings{
		UserID:              userID,
		EmailNotifications:  true,
		ExecutionAlerts:     true,
		MarketplaceUpdates:  false,
		SecurityAlerts:      true,
		ShowBalance:         true,
		ShowActivity:        true,
		AnalyticsEnabled:    true,
		Network:             "mainnet",
		AutoGasOptimization: true,
		MaxGasPrice:         500,
		SlippageTolerance:   0.5,
		TransactionDeadline: 20,
	}
}
