package domain

// Execution statuses. Pending transitions exactly once to success or
// failed and is terminal from then on.
const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Execution Model. One attempt to invoke an applet by a user. Fee is
// copied from the applet at creation time so history keeps the price
// that was actually charged.
type Execution struct {
	ID        string  `gorm:"primaryKey" json:"id"`                  // Primary key (uuid)
	Status    string  `gorm:"not null;default:pending" json:"status"` // pending, success or failed
	Fee       float64 `gorm:"not null" json:"fee"`                   // Fee frozen at creation time
	AppletID  string  `gorm:"index;not null" json:"appletId"`        // Foreign key to Applet
	Applet    Applet  `json:"applet"`                                // Invoked applet (preloaded in responses)
	UserID    uint    `gorm:"index;not null" json:"userId"`          // Foreign key to User
	Timestamp int64   `gorm:"autoCreateTime:milli" json:"timestamp"` // Timestamp of creation in milliseconds
}

// Terminal reports whether the execution has reached a final status.
func (e *Execution) Terminal() bool {
	return e.Status == StatusSuccess || e.Status == StatusFailed
}
