// Package status implements the connection status poller: immediate
// query, interval ticks, and a sticky stop once the instance reports
// connected.
package status

import (
	"sync"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/goulartxls/generate-qr-code-evogo/internal/panel"
)

// QueryFunc returns the simplified connection state for the polled
// instance.
type QueryFunc func() (string, error)

// Poller repeatedly queries connection status until the instance
// reports connected. Query errors are surfaced through OnUpdate but do
// not stop subsequent ticks.
type Poller struct {
	Query    QueryFunc
	Interval time.Duration
	Logger   waLog.Logger

	// OnUpdate receives each observation: a state on success, or an
	// error with empty state on a failed query.
	OnUpdate func(state string, err error)
}

// Handle cancels a running poller.
type Handle struct {
	stop chan struct{}
	once sync.Once
}

// Stop cancels the poller. Idempotent; an in-flight query is allowed to
// finish but its result is discarded.
func (h *Handle) Stop() {
	h.once.Do(func() { close(h.stop) })
}

// Start launches the polling loop in a background goroutine and returns
// its cancellation handle. One query is issued immediately; afterwards
// one per interval tick, except that ticks are skipped once the last
// observed state is connected. No further network calls happen after
// convergence until the poller is restarted for a new credential.
func (p *Poller) Start() *Handle {
	h := &Handle{stop: make(chan struct{})}
	go p.run(h)
	return h
}

func (p *Poller) run(h *Handle) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	last := p.poll(h, "")
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			if last == panel.StatusConnected {
				continue
			}
			last = p.poll(h, last)
		}
	}
}

// poll issues one query and reports it, returning the latest known
// state. Results that complete after Stop are dropped.
func (p *Poller) poll(h *Handle, last string) string {
	state, err := p.Query()

	select {
	case <-h.stop:
		return last
	default:
	}

	if err != nil {
		p.Logger.Warnf("Status query failed: %v", err)
		if p.OnUpdate != nil {
			p.OnUpdate("", err)
		}
		return last
	}

	if p.OnUpdate != nil {
		p.OnUpdate(state, nil)
	}
	return state
}
