package state

import (
	"errors"
	"testing"
	"time"
)

func TestStore_UpdateAndSnapshot(t *testing.T) {
	var s Store

	before := time.Now()
	s.Update(15*time.Millisecond, nil)

	h := s.Snapshot()
	if !h.Checked || !h.Reachable {
		t.Fatalf("health = %+v, want checked and reachable", h)
	}
	if h.Latency != 15*time.Millisecond {
		t.Fatalf("Latency = %v, want 15ms", h.Latency)
	}
	if h.LastChecked.Before(before) {
		t.Fatalf("LastChecked = %v, want >= %v", h.LastChecked, before)
	}
	if h.LastError != nil {
		t.Fatalf("LastError = %v, want nil", h.LastError)
	}
	if got := h.Label(); got != "online" {
		t.Fatalf("Label = %q, want online", got)
	}
}

func TestStore_UpdateErrorKeepsLatency(t *testing.T) {
	var s Store

	s.Update(10*time.Millisecond, nil)
	origErr := errors.New("boom")
	s.Update(0, origErr)

	h := s.Snapshot()
	if h.Reachable {
		t.Fatal("Reachable = true after failure")
	}
	if h.Latency != 10*time.Millisecond {
		t.Fatalf("Latency = %v, want previous 10ms", h.Latency)
	}
	if !errors.Is(h.LastError, origErr) {
		t.Fatalf("LastError = %v, want wrapping %v", h.LastError, origErr)
	}
	if h.LastError == origErr {
		t.Fatal("Snapshot should return a wrapped copy of the error")
	}
	if h.IsOffline() {
		t.Fatal("one failure should not mark the service offline")
	}
	if got := h.Label(); got != "degraded" {
		t.Fatalf("Label = %q, want degraded", got)
	}
}

func TestHealth_OfflineAfterRepeatedFailures(t *testing.T) {
	var s Store
	if got := s.Snapshot().Label(); got != "checking" {
		t.Fatalf("Label before first check = %q, want checking", got)
	}

	s.Update(0, errors.New("refused"))
	s.Update(0, errors.New("refused"))
	h := s.Snapshot()
	if !h.IsOffline() || h.ConsecutiveFailures != 2 {
		t.Fatalf("health = %+v, want offline after 2 failures", h)
	}
	if got := h.Label(); got != "offline" {
		t.Fatalf("Label = %q, want offline", got)
	}

	s.Update(time.Millisecond, nil)
	if h := s.Snapshot(); h.IsOffline() || h.ConsecutiveFailures != 0 {
		t.Fatalf("health = %+v, want reset after success", h)
	}
}
