package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"alarm-go/internal/alarm"
	"alarm-go/internal/config"
	"alarm-go/internal/database"
	"alarm-go/internal/export"
	"alarm-go/internal/waketimer"
)

// ErrAlarmNotFound is returned by commands that need an existing alarm.
var ErrAlarmNotFound = errors.New("alarm not found")

// ErrNoWakeTimer is returned by Watch when timers are disabled in config.
var ErrNoWakeTimer = errors.New("no wake-timer backend configured")

// Notifier presents a fired alarm to the user.
type Notifier interface {
	Notify(s alarm.Snapshot) error
}

// AlarmApp is the application layer between the CLI and AlarmService.
// It constructs all dependencies from config, records mutating commands in
// the operations table, and manages the store lifecycle on Close.
type AlarmApp struct {
	cfg     *config.Config
	store   *database.SQLiteStore
	timers  waketimer.Spool
	service *alarm.AlarmService
	clock   alarm.Clock
	logger  alarm.Logger
	op      *CommandOperation
	logFile *os.File
}

// NewAlarmApp creates a fully wired AlarmApp from the given config.
// operation identifies the CLI command being run (e.g. "Create", "Rearm").
// The caller must call Close when done.
func NewAlarmApp(cfg *config.Config, operation string) (*AlarmApp, error) {
	return newAlarmApp(cfg, operation, alarm.RealClock{}, alarm.RandomIDGenerator{})
}

func newAlarmApp(cfg *config.Config, operation string, clock alarm.Clock, idgen alarm.IDGenerator) (*AlarmApp, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	timers, err := waketimer.NewWakeTimerFromConfig(cfg.Timer)
	if err != nil {
		return nil, fmt.Errorf("creating wake timer: %w", err)
	}

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	l, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: l}

	// A nil Spool must reach the service as a nil WakeTimer.
	var wt alarm.WakeTimer
	if timers != nil {
		wt = timers
	}

	svc := alarm.NewAlarmService(store, wt, logger, clock, idgen)
	if cfg.Snooze.Minutes > 0 {
		svc.SetSnoozeInterval(time.Duration(cfg.Snooze.Minutes) * time.Minute)
	}

	return &AlarmApp{
		cfg:     cfg,
		store:   store,
		timers:  timers,
		service: svc,
		clock:   clock,
		logger:  logger,
		op:      NewCommandOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// persistOperation saves the command operation to the database, giving it an auto-increment ID.
// This should only be called for mutating commands.
func (a *AlarmApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	a.op.Parameters = parameters
	dbOp, err := a.store.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

func describe(al *alarm.Alarm) string {
	return fmt.Sprintf("time=%s days=%s enabled=%t", al.TimeString(), al.RepeatDays.String(), al.Enabled)
}

// Create stores a new alarm and arms it.
func (a *AlarmApp) Create(al *alarm.Alarm) (*alarm.Alarm, error) {
	if err := a.persistOperation(describe(al)); err != nil {
		return nil, err
	}
	created, err := a.service.Create(al)
	return created, a.op.Record(err)
}

// Get returns the alarm with the given ID.
func (a *AlarmApp) Get(id int64) (*alarm.Alarm, error) {
	al, err := a.service.Get(id)
	if err != nil {
		return nil, err
	}
	if al == nil {
		return nil, fmt.Errorf("%w: %d", ErrAlarmNotFound, id)
	}
	return al, nil
}

// List returns all alarms ordered by time of day.
func (a *AlarmApp) List() ([]*alarm.Alarm, error) {
	return a.service.List()
}

// Update replaces an existing alarm and re-arms it.
func (a *AlarmApp) Update(al *alarm.Alarm) error {
	if _, err := a.Get(al.ID); err != nil {
		return err
	}
	if err := a.persistOperation(fmt.Sprintf("id=%d %s", al.ID, describe(al))); err != nil {
		return err
	}
	return a.op.Record(a.service.Update(al))
}

// SetEnabled enables or disables an alarm.
func (a *AlarmApp) SetEnabled(id int64, enabled bool) error {
	if _, err := a.Get(id); err != nil {
		return err
	}
	if err := a.persistOperation(fmt.Sprintf("id=%d enabled=%t", id, enabled)); err != nil {
		return err
	}
	return a.op.Record(a.service.SetEnabled(id, enabled))
}

// Delete cancels an alarm's timers and removes it.
func (a *AlarmApp) Delete(id int64) error {
	if _, err := a.Get(id); err != nil {
		return err
	}
	if err := a.persistOperation(fmt.Sprintf("id=%d", id)); err != nil {
		return err
	}
	return a.op.Record(a.service.Delete(id))
}

// Snooze re-arms an alarm for now plus the snooze interval.
func (a *AlarmApp) Snooze(id int64) (time.Time, error) {
	if _, err := a.Get(id); err != nil {
		return time.Time{}, err
	}
	if err := a.persistOperation(fmt.Sprintf("id=%d", id)); err != nil {
		return time.Time{}, err
	}
	until, err := a.service.Snooze(id)
	return until, a.op.Record(err)
}

// Upcoming returns the next count trigger instants of an alarm.
func (a *AlarmApp) Upcoming(id int64, count int) ([]time.Time, error) {
	al, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	return alarm.Upcoming(al, a.clock.Now(), count)
}

// Export writes every enabled alarm to w as an iCalendar feed.
func (a *AlarmApp) Export(w io.Writer) error {
	alarms, err := a.service.List()
	if err != nil {
		return err
	}
	return export.WriteCalendar(w, alarms, a.clock.Now())
}

// History returns the most recent command operations.
func (a *AlarmApp) History(limit int) ([]*alarm.Operation, error) {
	return a.store.ListOperations(limit)
}

// Rearm re-arms every stored alarm. Returns the number of enabled alarms armed.
func (a *AlarmApp) Rearm() (int, error) {
	if err := a.persistOperation(""); err != nil {
		return 0, err
	}
	n, err := a.service.RearmAll()
	return n, a.op.Record(err)
}

// Pending returns the armed wake timers, or nil when timers are disabled.
func (a *AlarmApp) Pending() ([]waketimer.Entry, error) {
	if a.timers == nil {
		return nil, nil
	}
	return a.timers.Pending()
}

// Watch delivers due wake timers to n until ctx is cancelled. Each delivery
// is followed by AlarmService.HandleFired so repeating alarms stay armed.
func (a *AlarmApp) Watch(ctx context.Context, n Notifier) error {
	if a.timers == nil {
		return ErrNoWakeTimer
	}

	interval := time.Duration(a.cfg.Watch.PollSeconds) * time.Second
	w := waketimer.NewWatcher(a.timers, a.clock, a.logger, interval, func(ctx context.Context, e waketimer.Entry) error {
		if err := n.Notify(e.Payload); err != nil {
			a.logger.Error("notifying", "slot", e.Slot.String(), "error", err)
		}
		return a.service.HandleFired(e.Slot, e.Payload)
	})

	a.logger.Info("watching wake timers", "interval", interval.String())
	err := w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close finalizes the operation record and closes all resources.
func (a *AlarmApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.store.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
