package app

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultPollInterval = 450 * time.Millisecond
	maxBackoff          = 30 * time.Second
)

// LiveSyncer follows the bank the hardware is on.
type LiveSyncer interface {
	SyncLive(ctx context.Context) (bool, error)
}

// StartPoller launches a background goroutine that polls the hardware bank at
// a fixed cadence, backing off while the device is unreachable. It returns
// immediately.
func StartPoller(ctx context.Context, syncer LiveSyncer, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	go pollLoop(ctx, syncer, interval, logger)
}

func pollLoop(ctx context.Context, syncer LiveSyncer, interval time.Duration, logger *slog.Logger) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		_, err := syncer.SyncLive(ctx)
		switch {
		case err == nil:
			if failures > 0 {
				logger.Info("device reachable again", "failures", failures)
			}
			failures = 0
		case ctx.Err() != nil:
			return
		default:
			failures++
			// Log the first failure and then only occasionally.
			if failures == 1 || failures%20 == 0 {
				logger.Warn("live poll failed", "failures", failures, "error", err)
			}
		}
		timer.Reset(calculateBackoff(failures, interval))
	}
}

// calculateBackoff doubles the interval per consecutive failure up to
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
