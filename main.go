package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/api"
	"github.com/goulartxls/generate-qr-code-evogo/internal/config"
	"github.com/goulartxls/generate-qr-code-evogo/internal/dashboard"
	"github.com/goulartxls/generate-qr-code-evogo/internal/database"
	"github.com/goulartxls/generate-qr-code-evogo/internal/evolution"
	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
	"github.com/goulartxls/generate-qr-code-evogo/internal/wizard"
)

func main() {
	// Set up logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.StampMilli}
	logger := waLog.Zerolog(zerolog.New(output).With().Timestamp().Logger())

	cfg := config.NewConfig()

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "serve":
		runServer(cfg, logger)
	case "onboard":
		runOnboard(cfg, logger, len(os.Args) > 2 && os.Args[2] == "reconnect")
	case "dashboard":
		runDashboard(cfg, logger)
	default:
		fmt.Printf("Unknown mode %q. Usage: %s [serve|onboard [reconnect]|dashboard]\n", mode, os.Args[0])
		os.Exit(2)
	}
}

// runServer starts the reverse proxy and blocks until terminated
func runServer(cfg *config.Config, logger waLog.Logger) {
	// Security: Require MASTER_API_KEY in production
	if cfg.MasterKey == "" {
		if os.Getenv("DISABLE_AUTH_CHECK") != "true" {
			logger.Errorf("SECURITY: MASTER_API_KEY environment variable is required")
			logger.Errorf("Set MASTER_API_KEY or DISABLE_AUTH_CHECK=true for development")
			os.Exit(1)
		}
		logger.Warnf("WARNING: Running without a gateway master key (DISABLE_AUTH_CHECK=true)")
	}

	gateway := evolution.NewClient(cfg.EvolutionURL, logger.Sub("Gateway"))
	server := api.NewServer(gateway, cfg.MasterKey, cfg.APIPort, logger.Sub("API"))
	server.Start()

	logger.Infof("Proxy for %s running on port %d", cfg.EvolutionURL, cfg.APIPort)
	fmt.Println("Proxy server is running. Press Ctrl+C to exit.")

	// Wait for termination signal
	exitChan := make(chan os.Signal, 1)
	signal.Notify(exitChan, syscall.SIGINT, syscall.SIGTERM)
	<-exitChan

	fmt.Println("Shutting down...")
}

// runOnboard runs the interactive onboarding wizard against the proxy
func runOnboard(cfg *config.Config, logger waLog.Logger, reconnect bool) {
	store, err := openStore(cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close()

	wizardStore := wizard.NewStore(store)
	client := panel.NewClient(cfg.PanelURL)
	machine := wizard.NewMachine(client, wizardStore, logger.Sub("Wizard"))

	// The reconnect flow re-enters the wizard with the stored session
	// credential and phone, landing directly on the connection step.
	var entry wizard.Entry
	if reconnect {
		entry.Token, _ = wizardStore.LoadCredential()
		entry.Phone, _ = wizardStore.LoadPhone()
		if entry.Token == "" {
			logger.Errorf("No stored session to reconnect; run 'onboard' without arguments")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := wizard.RunTerminal(ctx, machine, entry, logger.Sub("Wizard")); err != nil {
		logger.Errorf("Onboarding aborted: %v", err)
		os.Exit(1)
	}

	if err := dashboard.Run(client, wizardStore, logger.Sub("Dashboard")); err != nil {
		logger.Errorf("Dashboard error: %v", err)
		os.Exit(1)
	}
}

// runDashboard runs the session view against the proxy
func runDashboard(cfg *config.Config, logger waLog.Logger) {
	store, err := openStore(cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	defer store.Close()

	client := panel.NewClient(cfg.PanelURL)
	if err := dashboard.Run(client, wizard.NewStore(store), logger.Sub("Dashboard")); err != nil {
		logger.Errorf("Dashboard error: %v", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config, logger waLog.Logger) (*database.StateStore, error) {
	store, err := database.NewStateStore(cfg.StatePath)
	if err != nil {
		logger.Errorf("Failed to initialize state store: %v", err)
		return nil, err
	}
	return store, nil
}
