package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"coldroute/internal/api"
	"coldroute/internal/config"
	"coldroute/internal/db"
	"coldroute/internal/engine"
	"coldroute/internal/inventory"
	"coldroute/internal/logger"
)

var version = "dev"

func main() {
	port := flag.Int("port", 5001, "HTTP server port")
	flag.Parse()

	logger.Banner(version)

	cfg := config.FromEnv()
	logger.Info("Config", fmt.Sprintf("Inventory API: %s", cfg.APIServerURL))
	if cfg.AgentAPIToken == "" {
		logger.Warn("Config", "AGENT_API_TOKEN not set, inventory requests go unauthenticated")
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()

	inv := inventory.NewClient(cfg.APIServerURL, cfg.AgentAPIToken, database)
	if inv.HealthCheck() {
		logger.Success("Inventory", "Warehouse inventory service reachable")
	} else {
		logger.Warn("Inventory", "Warehouse inventory service unreachable, lookups will fall back to empty stock")
	}

	optimizer := engine.NewOptimizer(inv)
	srv := api.NewServer(cfg, optimizer, inv, database)

	addr := fmt.Sprintf(":%d", *port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server stopped: %v", err))
		os.Exit(1)
	}
}
