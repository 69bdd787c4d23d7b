package waketimer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alarm-go/internal/alarm"
)

// FireFunc is invoked once per due entry, after the entry has been removed
// from the spool.
type FireFunc func(ctx context.Context, e Entry) error

// Watcher polls a Spool and delivers due entries.
type Watcher struct {
	spool    Spool
	clock    alarm.Clock
	logger   alarm.Logger
	interval time.Duration
	fire     FireFunc
}

// NewWatcher creates a Watcher that checks spool every interval.
func NewWatcher(spool Spool, clock alarm.Clock, logger alarm.Logger, interval time.Duration, fire FireFunc) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		spool:    spool,
		clock:    clock,
		logger:   logger,
		interval: interval,
		fire:     fire,
	}
}

// Run polls until ctx is cancelled. Errors from a single poll are logged and
// do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Poll(ctx); err != nil {
			w.logger.Error("polling wake timers", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll delivers every entry due at the current time and returns how many
// were delivered. Each entry is consumed before its FireFunc runs, so a
// handler may arm the same slot again. An entry whose slot was re-armed
// after it was listed is skipped; the newer entry is delivered when due.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	pending, err := w.spool.Pending()
	if err != nil {
		return 0, fmt.Errorf("listing pending timers: %w", err)
	}

	var errs []error
	fired := 0
	for _, e := range Due(pending, w.clock.Now()) {
		if err := ctx.Err(); err != nil {
			return fired, err
		}
		ok, err := w.spool.Consume(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("consuming slot %s: %w", e.Slot, err))
			continue
		}
		if !ok {
			w.logger.Debug("wake timer re-armed or cancelled before delivery", "slot", e.Slot.String())
			continue
		}
		w.logger.Debug("wake timer due", "slot", e.Slot.String(), "at", e.At.Format(time.RFC3339))

		fired++
		if err := w.fire(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("delivering slot %s: %w", e.Slot, err))
		}
	}
	return fired, errors.Join(errs...)
}
