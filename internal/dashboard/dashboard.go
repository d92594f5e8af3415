// Package dashboard implements the session view: credential
// validation, slow-cadence status polling, and the disconnect/logout
// actions.
package dashboard

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
	"github.com/goulartxls/generate-qr-code-evogo/internal/status"
	"github.com/goulartxls/generate-qr-code-evogo/internal/wizard"
)

// PollInterval is the dashboard's status poll cadence. Slower than the
// wizard's: nothing here is waiting on convergence.
const PollInterval = 5 * time.Second

// maskToken hides the credential for casual display
func maskToken(token string) string {
	return strings.Repeat("•", len(token))
}

// Run shows the dashboard. Without a stored credential it behaves like
// the login page: prompts for a token and validates it with one status
// call before saving it as the session credential.
func Run(client *panel.Client, store *wizard.Store, logger waLog.Logger) error {
	reader := bufio.NewReader(os.Stdin)

	token, ok := store.LoadCredential()
	if !ok {
		fmt.Print("Paste your instance token: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		token = strings.TrimSpace(line)
		if token == "" {
			return fmt.Errorf("no token provided; run 'onboard' to create an instance")
		}
		// Validate before saving, like the login form does.
		if _, err := client.Status(token); err != nil {
			return fmt.Errorf("token validation failed: %v", err)
		}
		if err := store.SaveCredential(token); err != nil {
			logger.Warnf("Failed to persist session credential: %v", err)
		}
	}

	fmt.Println("\n-- Dashboard --")
	fmt.Printf("Instance token: %s\n", maskToken(token))

	var lastState string
	poller := &status.Poller{
		Query: func() (string, error) {
			return client.Status(token)
		},
		Interval: PollInterval,
		Logger:   logger,
		OnUpdate: func(state string, err error) {
			if err != nil {
				logger.Warnf("Status check failed: %v", err)
				return
			}
			if state != lastState {
				lastState = state
				fmt.Printf("Status: %s\n", state)
			}
		},
	}
	handle := poller.Start()
	defer handle.Stop()

	fmt.Println("Commands: [t]oken, [d]isconnect, [r]econnect hint, [o] logout, [q]uit")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		switch strings.TrimSpace(strings.ToLower(line)) {
		case "t":
			fmt.Printf("Token: %s\n", token)
		case "d":
			if err := client.Disconnect(token); err != nil {
				fmt.Printf("✗ Disconnect failed: %v\n", err)
			} else {
				fmt.Println("✓ Instance disconnected")
			}
		case "r":
			phone, _ := store.LoadPhone()
			if phone != "" {
				fmt.Printf("Run 'onboard' to reconnect; saved phone %s will be reused.\n", phone)
			} else {
				fmt.Println("Run 'onboard' to reconnect.")
			}
		case "o":
			if err := client.Logout(token); err != nil {
				fmt.Printf("✗ Logout failed: %v\n", err)
			}
			if err := store.ClearCredential(); err != nil {
				logger.Warnf("Failed to clear session credential: %v", err)
			}
			fmt.Println("Session cleared.")
			return nil
		case "q":
			return nil
		}
	}
}
