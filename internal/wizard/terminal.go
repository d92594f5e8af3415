package wizard

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mdp/qrterminal"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/pairing"
	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
)

// RunTerminal drives the wizard interactively in the terminal. It loops
// through the three steps until the instance connects, then returns so
// the caller can hand off to the dashboard.
func RunTerminal(ctx context.Context, m *Machine, entry Entry, logger waLog.Logger) error {
	reader := bufio.NewReader(os.Stdin)
	m.Resume(entry)

	m.OnRefresh = func(qr pairing.QR, code string) {
		renderQR(qr, code)
	}
	m.OnStatus = func(state string, err error) {
		if err != nil {
			logger.Warnf("Status check failed: %v", err)
			return
		}
		if state == panel.StatusConnected {
			fmt.Println("\n✓ WhatsApp connected!")
		}
	}

	for {
		switch m.State().Step {
		case StepNameInstance:
			fmt.Println("\n-- Step 1/3: Instance name --")
			name := prompt(reader, "Choose a name for this connection: ")
			if name == "" {
				continue
			}
			if sanitized := SanitizeName(name); sanitized != name {
				fmt.Printf("Will be saved as: %s\n", sanitized)
			}
			if err := m.CreateInstance(name); err != nil {
				fmt.Printf("✗ Failed to create instance: %v\n", err)
				continue
			}
			fmt.Printf("✓ Instance created. Your token (save it!):\n  %s\n", m.State().Token)

		case StepEnterPhone:
			fmt.Println("\n-- Step 2/3: Phone number --")
			fmt.Printf("Token: %s\n", m.State().Token)
			raw := prompt(reader, "Area code + number, no country code (e.g. 41999999999), or 'restart': ")
			if strings.EqualFold(raw, "restart") {
				m.Reset()
				continue
			}
			// OnRefresh renders the QR and code once acquisition succeeds.
			if err := m.SubmitPhone(raw); err != nil {
				fmt.Printf("✗ Failed to start pairing: %v\n", err)
				continue
			}

		case StepAwaitConnection:
			fmt.Println("\n-- Step 3/3: Connect your phone --")
			printInstructions()
			if err := m.AwaitConnection(ctx); err != nil {
				return err
			}
			fmt.Println("Opening dashboard...")
			return nil
		}
	}
}

// renderQR draws the QR in the terminal and shows the pairing code
func renderQR(qr pairing.QR, code string) {
	if qr.Code != "" {
		fmt.Println("\nScan this QR code with your WhatsApp app:")
		qrterminal.GenerateHalfBlock(qr.Code, qrterminal.L, os.Stdout)
	} else if qr.Image != "" {
		fmt.Println("\nQR image received (no terminal-renderable code in payload).")
	}
	if code != "" {
		fmt.Printf("\nOr enter this pairing code on your phone: %s\n", code)
	}
}

func printInstructions() {
	fmt.Println("1. Open WhatsApp on your phone")
	fmt.Println("2. Tap More options or Settings")
	fmt.Println("3. Tap Linked devices")
	fmt.Println("4. Scan the QR code or enter the pairing code")
	fmt.Println("\nWaiting for connection (QR refreshes every 30s, Ctrl+C to abort)...")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
