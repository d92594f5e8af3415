package pairing

import (
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// SettleDelay is how long the remote session is given to initialize
// after QR issuance before a pairing-code request is meaningful.
const SettleDelay = 1500 * time.Millisecond

// QR is a fetched QR payload.
type QR struct {
	Image string // base64 image payload, shown by graphical clients
	Code  string // raw QR contents, rendered in the terminal
}

// Refresh runs the QR-then-pair acquisition sequence: fetch a fresh QR,
// wait for the session to settle, then drive the retrier for a pairing
// code. Used for the initial pairing step, manual refreshes, the 30s
// automatic refresh, and post-restore recovery.
type Refresh struct {
	FetchQR func() (QR, error)
	Retrier *Retrier
	Logger  waLog.Logger
	Settle  time.Duration

	// Sleep is overridable in tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewRefresh creates a refresh cycle with the standard settle delay
func NewRefresh(fetchQR func() (QR, error), retrier *Retrier, logger waLog.Logger) *Refresh {
	return &Refresh{
		FetchQR: fetchQR,
		Retrier: retrier,
		Logger:  logger,
		Settle:  SettleDelay,
		Sleep:   time.Sleep,
	}
}

// Run executes one acquisition sequence for the given phone. The QR is
// returned even when the pairing step fails afterwards, so callers can
// still display it. Errors from either step propagate; there is no
// retry at this level beyond what the retrier itself does.
func (rc *Refresh) Run(phone string) (QR, string, error) {
	qr, err := rc.FetchQR()
	if err != nil {
		return QR{}, "", err
	}
	rc.Logger.Debugf("QR received, settling for %v before pairing", rc.Settle)

	rc.Sleep(rc.Settle)

	result, err := rc.Retrier.Run(phone)
	if err != nil {
		return qr, "", err
	}

	code := ExtractCode(result)
	rc.Logger.Infof("Pairing code acquired: %q", code)
	return qr, code, nil
}
