package state

import (
	"fmt"
	"sync"
	"time"
)

// Health is the latest known reachability of the conversion service.
type Health struct {
	Checked             bool
	Reachable           bool
	Latency             time.Duration
	LastChecked         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed checks
}

// IsOffline returns true when the service has failed multiple checks in a row.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Label is a short description for status lines.
func (h Health) Label() string {
	switch {
	case !h.Checked:
		return "checking"
	case h.IsOffline():
		return "offline"
	case h.Reachable:
		return "online"
	default:
		return "degraded"
	}
}

// Store coordinates concurrent updates to the health snapshot.
type Store struct {
	mu     sync.RWMutex
	health Health
}

// Update records the outcome of one check. When err is non-nil the previous
// latency is kept but the error is recorded for visibility.
func (s *Store) Update(latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.Checked = true
	s.health.LastChecked = time.Now()

	if err != nil {
		s.health.Reachable = false
		s.health.LastError = err
		s.health.ConsecutiveFailures++
		return
	}

	s.health.Reachable = true
	s.health.Latency = latency
	s.health.LastError = nil
	s.health.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current health.
func (s *Store) Snapshot() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.health
	if s.health.LastError != nil {
		h.LastError = fmt.Errorf("%w", s.health.LastError)
	}
	return h
}
