package main

import (
	"applet_portal/internal/config" // Custom import path (Config)
	"applet_portal/internal/db"     // Custom import path (Database)
)

// Main entry point for migration and catalog seeding
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Migrate schema and seed applets
}
