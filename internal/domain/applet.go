package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Applet categories
const (
	CategoryAI      = "AI"      // AI and machine learning services
	CategoryOracle  = "Oracle"  // Data feed services
	CategoryAudit   = "Audit"   // Security analysis services
	CategoryStorage = "Storage" // Decentralized storage services
	CategoryDeFi    = "DeFi"    // Financial services
	CategoryCompute = "Compute" // Off-chain computation services
)

// Metric is a single label/value display pair shown on an applet card.
type Metric struct {
	Label string `json:"label"` // Metric label
	Value string `json:"value"` // Metric value
}

// MetricList stores applet metrics as a JSON column.
type MetricList []Metric

// Value marshals the metric list for storage
func (m MetricList) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan unmarshals the metric list from storage
func (m *MetricList) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("unsupported metrics column type")
	}
}

// Applet Model. Catalog entry for an invocable mock service; immutable
// after seeding and read-only to the rest of the system.
type Applet struct {
	ID             string     `gorm:"primaryKey" json:"id"`             // Primary key (stable seeded id)
	Name           string     `gorm:"not null" json:"name"`             // Display name
	Provider       string     `gorm:"not null" json:"provider"`         // Provider name
	Category       string     `gorm:"not null" json:"category"`         // One of the category constants
	Description    string     `json:"description"`                      // Short description
	GasCost        float64    `gorm:"not null" json:"gasCost"`          // Fixed invocation fee in WEI
	Icon           string     `json:"icon"`                             // Icon key for the frontend
	Metrics        MetricList `gorm:"type:text" json:"metrics"`         // Display metrics
	EstTime        string     `json:"estTime,omitempty"`                // Estimated execution time
	SecurityStatus string     `json:"securityStatus,omitempty"`         // Security badge text
	Version        string     `json:"version,omitempty"`                // Applet version string
	Compliance     string     `json:"compliance,omitempty"`             // Compliance badge text
	ContractHash   string     `json:"contractHash,omitempty"`           // Deployed contract identifier, if any
	CreatedAt      int64      `gorm:"autoCreateTime:milli" json:"-"`    // Timestamp of creation in milliseconds
}
