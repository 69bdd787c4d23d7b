package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSchedulerUnavailable is returned when no wake-timer service has been bound.
var ErrSchedulerUnavailable = errors.New("wake-timer service unavailable")

// OnceDay is the Slot.Day value of an alarm's one-shot slot.
const OnceDay = -1

// Slot identifies one armed timer: the one-shot slot of an alarm, or the slot
// for one of its weekdays.
type Slot struct {
	AlarmID int64 `json:"alarm_id"`
	Day     int   `json:"day"` // OnceDay, or 0..6 (time.Weekday)
}

// OnceSlot returns the one-shot slot of an alarm.
func OnceSlot(alarmID int64) Slot {
	return Slot{AlarmID: alarmID, Day: OnceDay}
}

// WeeklySlot returns the slot for one weekday of a repeating alarm.
func WeeklySlot(alarmID int64, day time.Weekday) Slot {
	return Slot{AlarmID: alarmID, Day: int(day)}
}

// AllSlots returns every slot an alarm could ever occupy: the one-shot slot
// followed by the seven weekday slots.
func AllSlots(alarmID int64) []Slot {
	slots := make([]Slot, 0, DaysPerWeek+1)
	slots = append(slots, OnceSlot(alarmID))
	for d := 0; d < DaysPerWeek; d++ {
		slots = append(slots, WeeklySlot(alarmID, time.Weekday(d)))
	}
	return slots
}

// IsWeekly reports whether the slot belongs to a weekday.
func (s Slot) IsWeekly() bool {
	return s.Day >= 0 && s.Day < DaysPerWeek
}

// String renders the slot as "<alarmID>/once" or "<alarmID>/<mon>".
func (s Slot) String() string {
	if !s.IsWeekly() {
		return fmt.Sprintf("%d/once", s.AlarmID)
	}
	return fmt.Sprintf("%d/%s", s.AlarmID, strings.ToLower(dayAbbrev[s.Day]))
}

// WakeTimer is the OS-level timer capability. Arming a slot that is already
// armed replaces the previous timer. Cancelling an unarmed slot is a no-op.
// Armed timers are not expected to survive a reboot.
type WakeTimer interface {
	Arm(slot Slot, at time.Time, payload Snapshot) error
	Cancel(slot Slot) error
}
