package alarm

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSnoozeInterval is how far ahead a snoozed alarm is re-armed.
const DefaultSnoozeInterval = 10 * time.Minute

// AlarmService is the orchestration layer that keeps the store and the armed
// wake timers consistent for the operations the CLI needs.
type AlarmService struct {
	store      Store
	reconciler *Reconciler
	logger     Logger
	clock      Clock
	idgen      IDGenerator
	snooze     time.Duration
}

// NewAlarmService creates a new AlarmService with the provided dependencies.
// timers may be nil when the wake-timer service could not be bound; alarms are
// then stored but never armed.
func NewAlarmService(store Store, timers WakeTimer, logger Logger, clock Clock, idgen IDGenerator) *AlarmService {
	return &AlarmService{
		store:      store,
		reconciler: NewReconciler(timers, clock, logger),
		logger:     logger,
		clock:      clock,
		idgen:      idgen,
		snooze:     DefaultSnoozeInterval,
	}
}

// SetSnoozeInterval overrides DefaultSnoozeInterval. Non-positive values are ignored.
func (s *AlarmService) SetSnoozeInterval(d time.Duration) {
	if d > 0 {
		s.snooze = d
	}
}

// Now returns the service clock's current time.
func (s *AlarmService) Now() time.Time {
	return s.clock.Now()
}

// Create assigns a new ID to a, stores it and arms it if enabled.
// The ringtone index is normalized before the record is written.
func (s *AlarmService) Create(a *Alarm) (*Alarm, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	created := a.Clone()
	created.ID = s.idgen.New()
	created.SetRingtoneIndex(created.RingtoneIndex)

	if err := s.store.CreateAlarm(created); err != nil {
		return nil, fmt.Errorf("creating alarm: %w", err)
	}
	s.logger.Info("alarm created", "alarm", created.ID, "time", created.TimeString())

	if err := s.warnIfUnavailable(s.reconciler.Arm(created)); err != nil {
		return created, fmt.Errorf("arming alarm: %w", err)
	}
	return created, nil
}

// Get returns the alarm with the given ID, or nil if it does not exist.
func (s *AlarmService) Get(id int64) (*Alarm, error) {
	a, err := s.store.FindAlarm(id)
	if err != nil {
		return nil, fmt.Errorf("finding alarm: %w", err)
	}
	return a, nil
}

// List returns all alarms ordered by time of day.
func (s *AlarmService) List() ([]*Alarm, error) {
	alarms, err := s.store.ListAlarms()
	if err != nil {
		return nil, fmt.Errorf("listing alarms: %w", err)
	}
	return alarms, nil
}

// Update replaces an existing alarm's fields and re-arms it: the old slot set
// is cancelled first, then the new one armed if the alarm is enabled.
// Updating a deleted alarm is a no-op.
func (s *AlarmService) Update(a *Alarm) error {
	if err := a.Validate(); err != nil {
		return err
	}

	existing, err := s.store.FindAlarm(a.ID)
	if err != nil {
		return fmt.Errorf("finding alarm: %w", err)
	}
	if existing == nil {
		s.logger.Warn("alarm not found, update ignored", "alarm", a.ID)
		return nil
	}

	updated := a.Clone()
	updated.SetRingtoneIndex(updated.RingtoneIndex)

	if err := s.store.UpdateAlarm(updated); err != nil {
		return fmt.Errorf("updating alarm: %w", err)
	}
	s.logger.Info("alarm updated", "alarm", updated.ID, "time", updated.TimeString())

	return s.warnIfUnavailable(s.reconciler.Reconcile(updated))
}

// SetEnabled flips the enabled flag. Turning an alarm off only cancels its
// timers; turning it on only arms them.
func (s *AlarmService) SetEnabled(id int64, enabled bool) error {
	existing, err := s.store.FindAlarm(id)
	if err != nil {
		return fmt.Errorf("finding alarm: %w", err)
	}
	if existing == nil {
		s.logger.Warn("alarm not found, toggle ignored", "alarm", id)
		return nil
	}

	if err := s.store.SetAlarmEnabled(id, enabled); err != nil {
		return fmt.Errorf("setting alarm enabled: %w", err)
	}
	existing.Enabled = enabled
	s.logger.Info("alarm toggled", "alarm", id, "enabled", enabled)

	if !enabled {
		return s.warnIfUnavailable(s.reconciler.Cancel(id))
	}
	return s.warnIfUnavailable(s.reconciler.Arm(existing))
}

// Delete cancels every timer of the alarm and removes its record. The record
// is removed even if some slots fail to cancel; those failures are returned.
func (s *AlarmService) Delete(id int64) error {
	cancelErr := s.warnIfUnavailable(s.reconciler.Cancel(id))

	if err := s.store.DeleteAlarm(id); err != nil {
		return errors.Join(cancelErr, fmt.Errorf("deleting alarm: %w", err))
	}
	s.logger.Info("alarm deleted", "alarm", id)
	return cancelErr
}

// Snooze re-arms the one-shot slot of an alarm for now plus the snooze
// interval, without saving anything: the configured time and the weekly slots
// are left as they are. It returns the new trigger instant, or the zero time
// if the alarm no longer exists.
func (s *AlarmService) Snooze(id int64) (time.Time, error) {
	a, err := s.store.FindAlarm(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("finding alarm: %w", err)
	}
	if a == nil {
		s.logger.Warn("alarm not found, snooze ignored", "alarm", id)
		return time.Time{}, nil
	}

	at := s.clock.Now().Add(s.snooze)
	snoozed := a.Clone()
	snoozed.Hour = at.Hour()
	snoozed.Minute = at.Minute()
	snoozed.RepeatDays = RepeatDays{}
	snoozed.Enabled = true

	if err := s.warnIfUnavailable(s.reconciler.Arm(snoozed)); err != nil {
		return time.Time{}, err
	}
	next := NextOccurrence(snoozed, s.clock.Now())
	s.logger.Info("alarm snoozed", "alarm", id, "until", next.Format("2006-01-02 15:04"))
	return next, nil
}

// RearmAll reconciles every stored alarm. Armed timers do not survive a
// reboot, so the surrounding app calls this at startup.
// Returns the number of enabled alarms that were armed.
func (s *AlarmService) RearmAll() (int, error) {
	alarms, err := s.store.ListAlarms()
	if err != nil {
		return 0, fmt.Errorf("listing alarms: %w", err)
	}
	if !s.reconciler.Available() {
		s.logger.Warn("wake-timer service unavailable, nothing re-armed")
		return 0, nil
	}

	var errs []error
	count := 0
	for _, a := range alarms {
		if err := s.reconciler.Reconcile(a); err != nil {
			errs = append(errs, fmt.Errorf("alarm %d: %w", a.ID, err))
			continue
		}
		if a.Enabled {
			count++
		}
	}

	s.logger.Info("alarms re-armed", "count", count)
	return count, errors.Join(errs...)
}

// HandleFired is called after the wake timer for slot has delivered payload.
// A weekday slot is armed again from the current record so the following week
// gets a timer; one-shot slots are consumed by firing.
func (s *AlarmService) HandleFired(slot Slot, payload Snapshot) error {
	s.logger.Info("alarm fired", "slot", slot.String(), "time", payload.TimeString(), "label", payload.Label)

	if !slot.IsWeekly() {
		return nil
	}

	a, err := s.store.FindAlarm(slot.AlarmID)
	if err != nil {
		return fmt.Errorf("finding alarm: %w", err)
	}
	if a == nil {
		s.logger.Debug("fired alarm no longer exists", "alarm", slot.AlarmID)
		return nil
	}
	if !a.Enabled || !a.RepeatDays[slot.Day] {
		return nil
	}

	return s.warnIfUnavailable(s.reconciler.Arm(a))
}

// warnIfUnavailable downgrades ErrSchedulerUnavailable to a logged warning.
func (s *AlarmService) warnIfUnavailable(err error) error {
	if errors.Is(err, ErrSchedulerUnavailable) {
		s.logger.Warn("alarm stored but not armed: wake-timer service unavailable")
		return nil
	}
	return err
}
