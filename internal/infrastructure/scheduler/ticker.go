// Package scheduler triggers the mailbox sweep at a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Ticker runs a job immediately on start and then once per interval until
// stopped.
type Ticker struct {
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{interval: interval, logger: logger}
}

// Start launches the loop. The job receives the tick time.
func (t *Ticker) Start(ctx context.Context, job func(time.Time)) error {
	if t.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", t.interval)
	}
	if t.done != nil {
		return fmt.Errorf("scheduler already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	t.logger.Info("scheduler started", "interval", t.interval)
	go func() {
		defer close(t.done)
		job(time.Now())
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				job(now)
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for the current job to finish, or for ctx
// to expire.
func (t *Ticker) Stop(ctx context.Context) error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	select {
	case <-t.done:
		t.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
