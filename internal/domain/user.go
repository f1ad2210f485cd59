package domain

// User Model. A user is identified only by its wallet address and is
// created lazily on first login.
type User struct {
	ID            uint        `gorm:"primaryKey" json:"id"`                                   // Primary key
	WalletAddress string      `gorm:"uniqueIndex;not null" json:"walletAddress"`              // Client-supplied wallet address
	Settings      *Settings   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-one relationship with Settings
	Executions    []Execution `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // One-to-many relationship with Executions
	CreatedAt     int64       `gorm:"autoCreateTime:milli" json:"createdAt"`                  // Timestamp of creation in milliseconds
}
