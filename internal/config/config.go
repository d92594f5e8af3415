package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	APIPort int

	// Upstream Evolution gateway
	EvolutionURL string // EVOLUTION_API_URL env var
	MasterKey    string // MASTER_API_KEY env var

	// Base URL the wizard/dashboard modes use to reach the local proxy
	PanelURL string // PANEL_URL env var

	// Path to the local SQLite state database
	StatePath string // STATE_DB_PATH env var
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	cfg := &Config{
		APIPort:      3001,
		EvolutionURL: "http://localhost:8080",
		StatePath:    "store/panel.db",
	}

	// Override with environment variables if set
	if port := os.Getenv("API_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.APIPort = p
		}
	}

	if url := os.Getenv("EVOLUTION_API_URL"); url != "" {
		cfg.EvolutionURL = url
	}

	cfg.MasterKey = os.Getenv("MASTER_API_KEY")

	if url := os.Getenv("PANEL_URL"); url != "" {
		cfg.PanelURL = url
	} else {
		cfg.PanelURL = fmt.Sprintf("http://localhost:%d", cfg.APIPort)
	}

	if path := os.Getenv("STATE_DB_PATH"); path != "" {
		cfg.StatePath = path
	}

	return cfg
}
