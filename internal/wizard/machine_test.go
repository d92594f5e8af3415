package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
)

// fakeSurface stands in for the local proxy, serving canned instance
// responses with configurable pairing and connection behavior.
type fakeSurface struct {
	mu sync.Mutex

	pairCalls      int
	pairEmptyUntil int // pair calls up to this count return an empty code
	qrCalls        int
	statusCalls    int
	connectedAfter int // status reports connected from this call on (0 = never)
}

func (f *fakeSurface) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/instance/create", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": req.Name, "token": "tok-123"})
	})

	mux.HandleFunc("/api/instance/qr", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.qrCalls++
		f.mu.Unlock()
		fmt.Fprint(w, `{"data":{"Qrcode":"data:image/png;base64,QQ==","Code":"raw-qr-payload"}}`)
	})

	mux.HandleFunc("/api/instance/pair", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.pairCalls++
		empty := f.pairCalls <= f.pairEmptyUntil
		f.mu.Unlock()
		code := "WXYZ-0000"
		if empty {
			code = ""
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":    map[string]string{"PairingCode": code},
			"message": "ok",
		})
	})

	mux.HandleFunc("/api/instance/status", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.statusCalls++
		connected := f.connectedAfter > 0 && f.statusCalls >= f.connectedAfter
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]bool{"Connected": connected, "LoggedIn": connected},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestMachine(t *testing.T, f *fakeSurface) (*Machine, *Store) {
	t.Helper()
	store := newTestStore(t)
	client := panel.NewClient(f.server(t).URL)
	m := NewMachine(client, store, waLog.Noop)

	// Collapse every delay so tests run instantly.
	m.retrier.Sleep = func(time.Duration) {}
	m.cycle.Sleep = func(time.Duration) {}
	m.sleep = func(time.Duration) {}
	m.pollEvery = 5 * time.Millisecond
	m.refreshEvery = time.Hour
	return m, store
}

func TestOnboardingEndToEnd(t *testing.T) {
	f := &fakeSurface{connectedAfter: 2}
	m, store := newTestMachine(t, f)

	if state := m.Resume(Entry{}); state.Step != StepNameInstance {
		t.Fatalf("Fresh wizard should start at step 1, got %d", state.Step)
	}

	if err := m.CreateInstance("Clinic One"); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	state := m.State()
	if state.Step != StepEnterPhone || state.Token != "tok-123" {
		t.Fatalf("Expected step 2 with token, got %+v", state)
	}
	if state.InstanceName != "Clinic One" {
		t.Errorf("Raw instance name should be kept, got %q", state.InstanceName)
	}
	if token, ok := store.LoadCredential(); !ok || token != "tok-123" {
		t.Errorf("Session credential not persisted: %q, %v", token, ok)
	}

	if err := m.SubmitPhone("41999999999"); err != nil {
		t.Fatalf("SubmitPhone failed: %v", err)
	}
	state = m.State()
	if state.Step != StepAwaitConnection {
		t.Fatalf("Expected step 3, got %d", state.Step)
	}
	if state.QRBase64 != "data:image/png;base64,QQ==" {
		t.Errorf("QR not stored: %q", state.QRBase64)
	}
	if state.PairingCode != "WXYZ-0000" {
		t.Errorf("Pairing code not stored: %q", state.PairingCode)
	}

	// The full record must be persisted at each transition.
	if saved, ok := store.LoadState(); !ok || saved != state {
		t.Errorf("Persisted record mismatch: %+v vs %+v", saved, state)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.AwaitConnection(ctx); err != nil {
		t.Fatalf("AwaitConnection failed: %v", err)
	}
	if !m.navigated {
		t.Error("Expected the connected exit to be marked as fired")
	}
}

func TestSubmitPhoneRejectsShortNumbers(t *testing.T) {
	f := &fakeSurface{}
	m, _ := newTestMachine(t, f)
	m.Resume(Entry{Token: "tok-123"})

	if err := m.SubmitPhone("419999"); err == nil {
		t.Fatal("Expected short phone to be rejected")
	}
	if f.pairCalls != 0 {
		t.Error("Short phone must not reach the gateway")
	}
}

func TestPairingRetriesAcrossCandidates(t *testing.T) {
	// First 3 pair calls come back empty; the retrier keeps going.
	f := &fakeSurface{pairEmptyUntil: 3}
	m, _ := newTestMachine(t, f)
	m.Resume(Entry{Token: "tok-123"})

	if err := m.SubmitPhone("41999999999"); err != nil {
		t.Fatalf("SubmitPhone failed: %v", err)
	}
	if m.State().PairingCode != "WXYZ-0000" {
		t.Errorf("Expected code after retries, got %q", m.State().PairingCode)
	}
	if f.pairCalls != 4 {
		t.Errorf("Expected 4 pair attempts, got %d", f.pairCalls)
	}
}

func TestResumeExternalEntry(t *testing.T) {
	f := &fakeSurface{}
	m, _ := newTestMachine(t, f)

	// Token plus phone: reconnect flow lands on step 3.
	state := m.Resume(Entry{Token: "tok-9", Phone: "41999999999"})
	if state.Step != StepAwaitConnection {
		t.Errorf("Expected step 3 for token+phone entry, got %d", state.Step)
	}
	if !m.restored {
		t.Error("Expected restore refresh to be flagged")
	}

	// Token only: step 2.
	m2, _ := newTestMachine(t, f)
	if state := m2.Resume(Entry{Token: "tok-9"}); state.Step != StepEnterPhone {
		t.Errorf("Expected step 2 for token-only entry, got %d", state.Step)
	}
}

func TestResumeFromPersistedState(t *testing.T) {
	f := &fakeSurface{}
	m, store := newTestMachine(t, f)

	if err := store.SaveState(State{Step: 2, InstanceName: "x", Token: "tok-5"}); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if state := m.Resume(Entry{}); state.Step != StepEnterPhone || state.Token != "tok-5" {
		t.Errorf("Expected resume from persisted record, got %+v", state)
	}
}

func TestRestoreIntoStepThreeReacquiresQR(t *testing.T) {
	f := &fakeSurface{connectedAfter: 1}
	m, _ := newTestMachine(t, f)
	m.Resume(Entry{Token: "tok-9", Phone: "41999999999"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.AwaitConnection(ctx); err != nil {
		t.Fatalf("AwaitConnection failed: %v", err)
	}
	if f.qrCalls != 1 {
		t.Errorf("Expected exactly one restore QR fetch, got %d", f.qrCalls)
	}
	if m.restored {
		t.Error("Restore flag must clear after the one-shot refresh")
	}
}

func TestResetKeepsCredential(t *testing.T) {
	f := &fakeSurface{}
	m, store := newTestMachine(t, f)
	m.Resume(Entry{})

	if err := m.CreateInstance("clinic"); err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	m.Reset()

	state := m.State()
	if state.Step != StepNameInstance || state.Token != "" {
		t.Errorf("Reset should return to defaults, got %+v", state)
	}
	if token, ok := store.LoadCredential(); !ok || token != "tok-123" {
		t.Errorf("Reset must not clear the session credential, got %q, %v", token, ok)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Clinic One", "Clinic-One"},
		{"a  b\tc", "a-b-c"},
		{"plain", "plain"},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := SanitizeName(c.in); got != c.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
