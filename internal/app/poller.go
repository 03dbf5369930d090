package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/tagdeck/internal/state"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
	pingTimeout         = 3 * time.Second
)

// Pinger probes the conversion service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StartPoller launches a background goroutine that checks service health at
// a fixed cadence, backing off while checks fail. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, pinger Pinger, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "health")

	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			check(ctx, store, pinger, logger)
			timer.Reset(calculateBackoff(store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

func check(ctx context.Context, store *state.Store, pinger Pinger, logger *slog.Logger) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := pinger.Ping(pingCtx)
	if err != nil && ctx.Err() != nil {
		return
	}
	prev := store.Snapshot()
	store.Update(time.Since(start), err)

	switch {
	case err != nil && prev.ConsecutiveFailures == 0:
		logger.Warn("service health check failed", slog.String("error", err.Error()))
	case err == nil && prev.ConsecutiveFailures > 0:
		logger.Info("service reachable again", slog.Int("failed_checks", prev.ConsecutiveFailures))
	}
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
