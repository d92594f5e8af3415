package pairing

import (
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// PairFunc issues a single pairing attempt for one phone candidate and
// returns the raw gateway payload.
type PairFunc func(phone string) (map[string]interface{}, error)

const (
	// PairMaxRounds is how many rounds of candidates are tried before
	// giving up on retries.
	PairMaxRounds = 10
	// PairRetryDelay is the wait between unsuccessful rounds.
	PairRetryDelay = 3 * time.Second
)

// Retrier attempts to obtain a non-empty pairing code by cycling
// through phone candidates with bounded retries and fixed backoff.
type Retrier struct {
	Pair      PairFunc
	Logger    waLog.Logger
	MaxRounds int
	Delay     time.Duration

	// Sleep is overridable in tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// NewRetrier creates a retrier with the standard round and delay bounds
func NewRetrier(pair PairFunc, logger waLog.Logger) *Retrier {
	return &Retrier{
		Pair:      pair,
		Logger:    logger,
		MaxRounds: PairMaxRounds,
		Delay:     PairRetryDelay,
		Sleep:     time.Sleep,
	}
}

// Run tries pairing with the primary phone and its alternate candidate,
// in order, for up to MaxRounds rounds. The first attempt that yields a
// non-empty code returns its full payload immediately. Attempt errors
// are logged and treated as "no code". When every round is exhausted,
// one final attempt is made with the primary number alone and its
// outcome is returned unconditionally, error included.
//
// The phone must be a normalized national number of at least 10 digits.
func (r *Retrier) Run(phone string) (map[string]interface{}, error) {
	candidates := []string{phone, Alternate(phone)}

	for round := 1; round <= r.MaxRounds; round++ {
		for _, number := range candidates {
			result, err := r.Pair(number)
			if err != nil {
				r.Logger.Warnf("Pair attempt %d with %s failed: %v", round, number, err)
				continue
			}
			if code := ExtractCode(result); code != "" {
				r.Logger.Infof("Pair attempt %d with %s yielded code", round, number)
				return result, nil
			}
		}

		if round < r.MaxRounds {
			r.Logger.Debugf("Empty pairing code, retrying in %v", r.Delay)
			r.Sleep(r.Delay)
		}
	}

	r.Logger.Warnf("All pairing retries exhausted, returning last attempt")
	return r.Pair(phone)
}
