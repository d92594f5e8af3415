// Package wizard implements the 3-step onboarding state machine:
// instance naming, phone entry, and QR/pairing-code display with
// connection polling. Progress is persisted so the wizard survives
// restarts mid-flow.
package wizard

import (
	"encoding/json"

	"github.com/goulartxls/generate-qr-code-evogo/internal/database"
)

// Storage keys. Kept identical to the web client's localStorage keys so
// records are recognizable across frontends.
const (
	stateKey      = "onboarding_state"
	credentialKey = "instance-token"
	phoneKey      = "instance-phone"
)

// Wizard steps.
const (
	StepNameInstance    = 1
	StepEnterPhone      = 2
	StepAwaitConnection = 3
)

// State is the persisted wizard record
type State struct {
	Step         int    `json:"step"`
	InstanceName string `json:"instanceName"`
	Token        string `json:"token"`
	Phone        string `json:"phone"`
	QRBase64     string `json:"qrBase64"`
	PairingCode  string `json:"pairingCode"`
}

// Store persists wizard progress and the session credential as JSON
// values under fixed keys. The credential lives under its own key so it
// survives a wizard reset.
type Store struct {
	db *database.StateStore
}

// NewStore creates a wizard store on top of the state database
func NewStore(db *database.StateStore) *Store {
	return &Store{db: db}
}

// SaveState persists the full wizard record
func (s *Store) SaveState(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.db.Put(stateKey, data)
}

// LoadState returns the saved wizard record. Absent, unreadable, or
// corrupt records all yield ok=false; corruption is never an error
// surfaced to the user.
func (s *Store) LoadState() (State, bool) {
	raw, ok, err := s.db.Get(stateKey)
	if err != nil || !ok {
		return State{}, false
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, false
	}
	return state, true
}

// ClearState removes the persisted wizard record
func (s *Store) ClearState() error {
	return s.db.Delete(stateKey)
}

// SaveCredential persists the session credential
func (s *Store) SaveCredential(token string) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.db.Put(credentialKey, data)
}

// LoadCredential returns the session credential, if any
func (s *Store) LoadCredential() (string, bool) {
	raw, ok, err := s.db.Get(credentialKey)
	if err != nil || !ok {
		return "", false
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil || token == "" {
		return "", false
	}
	return token, true
}

// ClearCredential removes the session credential
func (s *Store) ClearCredential() error {
	return s.db.Delete(credentialKey)
}

// SavePhone persists the last phone number submitted for pairing,
// used by the reconnect flow
func (s *Store) SavePhone(phone string) error {
	data, err := json.Marshal(phone)
	if err != nil {
		return err
	}
	return s.db.Put(phoneKey, data)
}

// LoadPhone returns the last paired phone number, if any
func (s *Store) LoadPhone() (string, bool) {
	raw, ok, err := s.db.Get(phoneKey)
	if err != nil || !ok {
		return "", false
	}
	var phone string
	if err := json.Unmarshal(raw, &phone); err != nil || phone == "" {
		return "", false
	}
	return phone, true
}
