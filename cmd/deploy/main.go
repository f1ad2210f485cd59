package main

import (
	"flag" // CLI flags

	"applet_portal/internal/deploy" // Deployment simulation

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for simulated applet deployment
func main() {
	appletName := flag.String("applet", "example-applet", "applet directory name")
	network := flag.String("network", "testnet", "target network (testnet, mainnet, local)")
	appletsDir := flag.String("applets-dir", "applets", "root directory holding applet sources")
	manifest := flag.String("manifest", "deployments.json", "deployment manifest to update")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	logrus.WithFields(logrus.Fields{
		"applet":  *appletName,
		"network": *network,
	}).Info("Deploying applet")

	record, err := deploy.Run(deploy.Options{
		AppletName:   *appletName,
		Network:      *network,
		AppletsDir:   *appletsDir,
		ManifestPath: *manifest,
	})
	if err != nil {
		logrus.Fatalf("deployment failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"applet":        *appletName,
		"network":       *network,
		"contract_hash": record.ContractHash,
		"wasm_path":     record.WasmPath,
	}).Info("Deployment complete")
}
