package db

import (
	"applet_portal/internal/domain"

	"gorm.io/gorm"
)

// CatalogApplets is the seeded applet catalog. IDs are stable across
// reseeds so deployments and clients can reference them.
var CatalogApplets = []domain.Applet{
	{
		ID:          "applet-1",
		Name:        "AI Model Training",
		Provider:    "Neural Networks Inc.",
		Category:    domain.CategoryAI,
		Description: "Distributed AI model training with privacy-preserving techniques",
		GasCost:     250,
		Icon:        "brain",
		Metrics: domain.MetricList{
			{Label: "Accuracy", Value: "99.8%"},
			{Label: "Params", Value: "1.2B"},
		},
		EstTime:        "~5-10 min",
		SecurityStatus: "Audited",
		Version:        "v2.3.0",
		Compliance:     "GDPR",
	},
	{
		ID:          "applet-2",
		Name:        "Decentralized Oracle",
		Provider:    "Data Streams Ltd.",
		Category:    domain.CategoryOracle,
		Description: "Real-time price feeds and off-chain data aggregation",
		GasCost:     200,
		Icon:        "radio",
		Metrics: domain.MetricList{
			{Label: "Uptime", Value: "99.99%"},
			{Label: "Feeds", Value: "50+"},
		},
		EstTime:        "~1-2 sec",
		SecurityStatus: "Verified",
		Version:        "v1.0.5",
		Compliance:     "ISO27001",
	},
	{
		ID:          "applet-3",
		Name:        "Smart Contract Auditor",
		Provider:    "Security Experts",
		Category:    domain.CategoryAudit,
		Description: "Automated vulnerability scanning and security analysis",
		GasCost:     350,
		Icon:        "shield",
		Metrics: domain.MetricList{
			{Label: "Speed", Value: "<1 min"},
			{Label: "Vulns", Value: "Top 10"},
		},
		EstTime:        "~45 sec",
		SecurityStatus: "High Assurance",
		Version:        "v4.1.2",
		Compliance:     "NIST",
	},
	{
		ID:          "applet-4",
		Name:        "Decentralized Oracle+",
		Provider:    "Oracle Pro Services",
		Category:    domain.CategoryOracle,
		Description: "Premium oracle with guaranteed uptime and accuracy",
		GasCost:     300,
		Icon:        "radio",
		Metrics: domain.MetricList{
			{Label: "Uptime", Value: "100%"},
			{Label: "Feeds", Value: "500+"},
		},
		EstTime:        "~500 ms",
		SecurityStatus: "Pro Verified",
		Version:        "v3.0.0",
		Compliance:     "SOC2",
	},
	{
		ID:          "applet-5",
		Name:        "IPFS File Manager",
		Provider:    "Storage Solutions",
		Category:    domain.CategoryStorage,
		Description: "Decentralized file storage with content addressing",
		GasCost:     180,
		Icon:        "database",
		Metrics: domain.MetricList{
			{Label: "Pins", Value: "Auto"},
			{Label: "Nodes", Value: "12k"},
		},
		EstTime:        "~2-5 sec",
		SecurityStatus: "Standard",
		Version:        "v0.9.8",
		Compliance:     "None",
	},
	{
		ID:          "applet-6",
		Name:        "DeFi Yield Optimizer",
		Provider:    "Yield Farmers Co.",
		Category:    domain.CategoryDeFi,
		Description: "Automated yield farming strategies across protocols",
		GasCost:     400,
		Icon:        "sparkles",
		Metrics: domain.MetricList{
			{Label: "APY", Value: "Up to 15%"},
			{Label: "TVL", Value: "$4.2M"},
		},
		EstTime:        "~15-30 sec",
		SecurityStatus: "Audited",
		Version:        "v2.5.1",
		Compliance:     "DeFi Safety",
	},
	{
		ID:          "applet-7",
		Name:        "Zero-Knowledge Compute",
		Provider:    "Privacy Labs",
		Category:    domain.CategoryCompute,
		Description: "Execute sensitive computations with ZK proofs",
		GasCost:     500,
		Icon:        "code",
		Metrics: domain.MetricList{
			{Label: "Proof", Value: "SNARK"},
			{Label: "Privacy", Value: "High"},
		},
		EstTime:        "~1-3 min",
		SecurityStatus: "ZK-Proven",
		Version:        "v1.1.0",
		Compliance:     "HIPAA",
	},
	{
		ID:          "applet-8",
		Name:        "Multi-Sig Treasury",
		Provider:    "DAO Tools Inc.",
		Category:    domain.CategoryDeFi,
		Description: "Collaborative treasury management with governance",
		GasCost:     275,
		Icon:        "sparkles",
		Metrics: domain.MetricList{
			{Label: "Signers", Value: "M-of-N"},
			{Label: "Security", Value: "Audited"},
		},
		EstTime:        "~Instant",
		SecurityStatus: "Multi-Sig",
		Version:        "v3.2.4",
		Compliance:     "ISO27001",
	},
}

// Seed replaces the applet catalog with the seeded entries. Executions
// are cleared first because they reference applets.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.Execution{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&domain.Applet{}).Error; err != nil {
			return err
		}
		for _, applet := range CatalogApplets {
			if err := tx.Create(&applet).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
