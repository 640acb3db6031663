package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeSyncer struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeSyncer) SyncLive(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return false, nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return false, err
}

func (f *fakeSyncer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartPollerPollsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	syncer := &fakeSyncer{}
	StartPoller(ctx, syncer, 5*time.Millisecond, discardLogger())

	deadline := time.Now().Add(2 * time.Second)
	for syncer.Calls() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 3", syncer.Calls())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	time.Sleep(20 * time.Millisecond)
	after := syncer.Calls()
	time.Sleep(50 * time.Millisecond)
	if got := syncer.Calls(); got != after {
		t.Fatalf("poller kept running after cancel: %d -> %d calls", after, got)
	}
}

func TestStartPollerBacksOffOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fail := errors.New("unreachable")
	syncer := &fakeSyncer{errs: []error{fail, fail, fail, fail, fail}}
	StartPoller(ctx, syncer, 20*time.Millisecond, discardLogger())

	// Without backoff six polls fit in 150ms; with it the fourth is due
	// after 20+40+80+160ms.
	time.Sleep(150 * time.Millisecond)
	if got := syncer.Calls(); got > 3 {
		t.Fatalf("poller made %d calls while failing, want at most 3", got)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
