package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/pairing"
	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
	"github.com/goulartxls/generate-qr-code-evogo/internal/status"
)

const (
	// AutoRefreshInterval is the cadence of the automatic QR/pair
	// refresh while awaiting connection.
	AutoRefreshInterval = 30 * time.Second
	// PollInterval is the status poll cadence while awaiting connection.
	PollInterval = time.Second
	// SuccessGrace is how long the success indication stays visible
	// before the wizard hands off to the dashboard.
	SuccessGrace = 2 * time.Second
)

// Entry describes how the wizard was entered. A token plus phone (the
// dashboard reconnect flow) starts directly at step 3; a token alone at
// step 2; otherwise persisted state or defaults apply.
type Entry struct {
	Token string
	Phone string
}

// Machine drives the onboarding wizard. Every transition persists the
// full wizard record before returning.
type Machine struct {
	client *panel.Client
	store  *Store
	logger waLog.Logger

	state    State
	lastQR   pairing.QR
	restored bool
	// navigated guards the connected exit so it fires at most once per
	// session even if a later poll observes connected again.
	navigated bool

	retrier *pairing.Retrier
	cycle   *pairing.Refresh

	refreshEvery time.Duration
	pollEvery    time.Duration
	grace        time.Duration
	sleep        func(time.Duration)

	// OnRefresh is called after each successful QR/pair acquisition so
	// the front-end can re-render.
	OnRefresh func(qr pairing.QR, code string)
	// OnStatus receives each status poll observation.
	OnStatus func(state string, err error)
}

// NewMachine creates a wizard machine
func NewMachine(client *panel.Client, store *Store, logger waLog.Logger) *Machine {
	m := &Machine{
		client:       client,
		store:        store,
		logger:       logger,
		refreshEvery: AutoRefreshInterval,
		pollEvery:    PollInterval,
		grace:        SuccessGrace,
		sleep:        time.Sleep,
	}
	m.retrier = pairing.NewRetrier(m.pairOnce, logger)
	m.cycle = pairing.NewRefresh(m.fetchQR, m.retrier, logger)
	return m
}

// State returns a copy of the current wizard record
func (m *Machine) State() State {
	return m.state
}

// LastQR returns the most recently fetched QR payload
func (m *Machine) LastQR() pairing.QR {
	return m.lastQR
}

// SanitizeName collapses whitespace runs in an instance name to dashes
func SanitizeName(name string) string {
	return strings.Join(strings.Fields(name), "-")
}

// Resume initializes the wizard: an external entry wins over persisted
// state, which wins over defaults. The resulting record is persisted.
func (m *Machine) Resume(entry Entry) State {
	saved, ok := m.store.LoadState()

	switch {
	case entry.Token != "":
		step := StepEnterPhone
		if entry.Phone != "" {
			step = StepAwaitConnection
		}
		m.state = State{Step: step, Token: entry.Token, Phone: entry.Phone}
		if ok {
			m.state.InstanceName = saved.InstanceName
		}
	case ok:
		m.state = saved
		if m.state.Step < StepNameInstance || m.state.Step > StepAwaitConnection {
			m.state.Step = StepNameInstance
		}
	default:
		m.state = State{Step: StepNameInstance}
	}

	// Entering straight into step 3 means the QR and code on record are
	// stale or missing; flag a one-shot re-acquisition.
	m.restored = m.state.Step == StepAwaitConnection && m.state.Token != "" && m.state.Phone != ""

	m.persist()
	return m.state
}

// CreateInstance performs the step 1 -> 2 transition: creates the
// instance at the gateway and stores the minted credential in both the
// wizard record and the independent session credential slot.
func (m *Machine) CreateInstance(name string) error {
	sanitized := SanitizeName(name)
	if sanitized == "" {
		return fmt.Errorf("instance name is required")
	}

	result, err := m.client.CreateInstance(sanitized)
	if err != nil {
		return err
	}

	m.state.InstanceName = name
	m.state.Token = result.Token
	m.state.Step = StepEnterPhone
	m.persist()

	if err := m.store.SaveCredential(result.Token); err != nil {
		m.logger.Warnf("Failed to persist session credential: %v", err)
	}
	return nil
}

// SubmitPhone performs the step 2 -> 3 transition: normalizes the
// phone, runs the QR/pair acquisition cycle, and advances on success.
// On failure the wizard stays at step 2 for a user-triggered retry.
func (m *Machine) SubmitPhone(raw string) error {
	phone := pairing.Normalize(raw)
	if len(phone) < 10 {
		return fmt.Errorf("phone number must have at least 10 digits (area code + number)")
	}

	m.state.Phone = phone
	if err := m.store.SavePhone(phone); err != nil {
		m.logger.Warnf("Failed to persist phone: %v", err)
	}

	if err := m.acquire(); err != nil {
		m.persist()
		return err
	}

	m.state.Step = StepAwaitConnection
	m.persist()
	return nil
}

// RefreshQR re-runs the QR/pair acquisition for the current phone.
// Used for manual refreshes, the 30s automatic cycle, and post-restore
// recovery.
func (m *Machine) RefreshQR() error {
	err := m.acquire()
	m.persist()
	return err
}

// acquire runs one refresh cycle and folds the result into the wizard
// record. The QR is kept even when the pairing step fails afterwards.
func (m *Machine) acquire() error {
	qr, code, err := m.cycle.Run(m.state.Phone)
	if qr.Image != "" || qr.Code != "" {
		m.lastQR = qr
		m.state.QRBase64 = qr.Image
	}
	if err != nil {
		return err
	}
	m.state.PairingCode = code
	if m.OnRefresh != nil {
		m.OnRefresh(qr, code)
	}
	return nil
}

// Reset returns the wizard to step 1, discarding all wizard fields.
// The session credential is untouched: reset abandons onboarding
// progress, not authentication.
func (m *Machine) Reset() {
	m.state = State{Step: StepNameInstance}
	m.lastQR = pairing.QR{}
	m.restored = false
	if err := m.store.ClearState(); err != nil {
		m.logger.Warnf("Failed to clear wizard state: %v", err)
	}
	m.persist()
}

// AwaitConnection runs the step 3 loops: the status poller and the
// automatic QR/pair refresh. It returns nil once the instance reports
// connected, after the success grace delay; the connected exit fires at
// most once per session. Cancellation via ctx stops all timers.
func (m *Machine) AwaitConnection(ctx context.Context) error {
	if m.state.Token == "" || m.state.Phone == "" {
		return fmt.Errorf("missing credential or phone; cannot await connection")
	}

	// A session restored straight into step 3 needs fresh QR and code:
	// they are not reliably valid across restarts.
	if m.restored {
		m.restored = false
		m.logger.Infof("Restored into connection step, re-acquiring QR and pairing code")
		if err := m.RefreshQR(); err != nil {
			m.logger.Warnf("Restore refresh failed: %v", err)
		}
	}

	connected := make(chan struct{}, 1)
	poller := &status.Poller{
		Query: func() (string, error) {
			return m.client.Status(m.state.Token)
		},
		Interval: m.pollEvery,
		Logger:   m.logger,
		OnUpdate: func(state string, err error) {
			if m.OnStatus != nil {
				m.OnStatus(state, err)
			}
			if err == nil && state == panel.StatusConnected {
				select {
				case connected <- struct{}{}:
				default:
				}
			}
		},
	}
	handle := poller.Start()
	defer handle.Stop()

	refreshTicker := time.NewTicker(m.refreshEvery)
	defer refreshTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-refreshTicker.C:
			if err := m.RefreshQR(); err != nil {
				// The next tick retries on its own schedule.
				m.logger.Warnf("Auto refresh failed: %v", err)
			}
		case <-connected:
			if m.navigated {
				continue
			}
			m.navigated = true
			m.logger.Infof("WhatsApp connected")
			m.sleep(m.grace)
			return nil
		}
	}
}

func (m *Machine) pairOnce(number string) (map[string]interface{}, error) {
	return m.client.Pair(m.state.Token, number)
}

func (m *Machine) fetchQR() (pairing.QR, error) {
	result, err := m.client.QR(m.state.Token)
	if err != nil {
		return pairing.QR{}, err
	}
	return pairing.QR{Image: result.Data.Qrcode, Code: result.Data.Code}, nil
}

func (m *Machine) persist() {
	if err := m.store.SaveState(m.state); err != nil {
		m.logger.Errorf("Failed to persist wizard state: %v", err)
	}
}
