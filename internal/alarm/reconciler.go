package alarm

import (
	"errors"
	"fmt"
)

// Reconciler keeps the armed wake timers of an alarm in line with its record.
//
// Slots depend only on the alarm ID and the weekday, so cancelling never needs
// the previous field values: every possible slot of the ID is cancelled.
type Reconciler struct {
	timers WakeTimer
	clock  Clock
	logger Logger
}

// NewReconciler creates a Reconciler bound to the given wake-timer handle.
// A nil handle models a service that has not been initialized yet; Arm and
// Cancel then do nothing and report ErrSchedulerUnavailable.
func NewReconciler(timers WakeTimer, clock Clock, logger Logger) *Reconciler {
	return &Reconciler{
		timers: timers,
		clock:  clock,
		logger: logger,
	}
}

// Available reports whether a wake-timer service is bound.
func (r *Reconciler) Available() bool {
	return r.timers != nil
}

// Arm arms the timers implied by a: the one-shot slot for a non-repeating
// alarm, or one slot per active weekday. Disabled alarms are left alone.
// A failure on one slot does not stop the others; all failures are joined.
func (r *Reconciler) Arm(a *Alarm) error {
	if !r.Available() {
		r.logger.Warn("wake-timer service unavailable, alarm not armed", "alarm", a.ID)
		return ErrSchedulerUnavailable
	}
	if !a.Enabled {
		r.logger.Debug("alarm disabled, not arming", "alarm", a.ID)
		return nil
	}

	now := r.clock.Now()
	payload := a.Snapshot()

	if !a.IsRepeating() {
		slot := OnceSlot(a.ID)
		at := NextOccurrence(a, now)
		if err := r.timers.Arm(slot, at, payload); err != nil {
			return fmt.Errorf("arming slot %s: %w", slot, err)
		}
		r.logger.Info("alarm armed", "slot", slot.String(), "at", at.Format("2006-01-02 15:04"))
		return nil
	}

	var errs []error
	for _, occ := range NextOccurrencesWithinWeek(a, now) {
		slot := WeeklySlot(a.ID, occ.Weekday)
		if err := r.timers.Arm(slot, occ.At, payload); err != nil {
			r.logger.Error("arming slot failed", "slot", slot.String(), "error", err)
			errs = append(errs, fmt.Errorf("arming slot %s: %w", slot, err))
			continue
		}
		r.logger.Info("alarm armed", "slot", slot.String(), "at", occ.At.Format("2006-01-02 15:04"))
	}
	return errors.Join(errs...)
}

// Cancel cancels every slot the alarm ID could occupy, armed or not.
func (r *Reconciler) Cancel(alarmID int64) error {
	if !r.Available() {
		r.logger.Warn("wake-timer service unavailable, alarm not cancelled", "alarm", alarmID)
		return ErrSchedulerUnavailable
	}

	var errs []error
	for _, slot := range AllSlots(alarmID) {
		if err := r.timers.Cancel(slot); err != nil {
			r.logger.Error("cancelling slot failed", "slot", slot.String(), "error", err)
			errs = append(errs, fmt.Errorf("cancelling slot %s: %w", slot, err))
		}
	}
	r.logger.Debug("alarm cancelled", "alarm", alarmID)
	return errors.Join(errs...)
}

// Reconcile applies the edit protocol: cancel the ID's old slot set, then arm
// the new one if the alarm is enabled.
func (r *Reconciler) Reconcile(a *Alarm) error {
	cancelErr := r.Cancel(a.ID)
	if errors.Is(cancelErr, ErrSchedulerUnavailable) {
		return cancelErr
	}
	// Cancel failures are per slot; arming still proceeds.
	return errors.Join(cancelErr, r.Arm(a))
}
