package alarm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DaysPerWeek is the fixed size of RepeatDays.
	DaysPerWeek = 7

	// RingtoneCount is the number of bundled ringtones; valid indexes are [0, RingtoneCount).
	RingtoneCount = 10
)

var (
	// ErrInvalidTime is returned when an hour or minute is out of range.
	ErrInvalidTime = errors.New("invalid time of day")

	// ErrInvalidRepeatDays is returned when a repeat-day expression cannot be parsed.
	ErrInvalidRepeatDays = errors.New("invalid repeat days")
)

// RepeatDays marks the weekdays an alarm fires on, indexed by time.Weekday
// (0=Sunday .. 6=Saturday). An all-false set means a one-shot alarm.
type RepeatDays [DaysPerWeek]bool

// Has reports whether the given weekday is active.
func (d RepeatDays) Has(day time.Weekday) bool {
	return d[int(day)%DaysPerWeek]
}

// Count returns the number of active weekdays.
func (d RepeatDays) Count() int {
	n := 0
	for _, on := range d {
		if on {
			n++
		}
	}
	return n
}

// Any reports whether at least one weekday is active.
func (d RepeatDays) Any() bool {
	return d.Count() > 0
}

// String encodes the set as seven '0'/'1' characters, Sunday first.
// This is the storage format used by the alarms table.
func (d RepeatDays) String() string {
	var b strings.Builder
	b.Grow(DaysPerWeek)
	for _, on := range d {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// DecodeRepeatDays parses the storage encoding produced by RepeatDays.String.
// Anything that is not exactly seven characters decodes to no active days.
func DecodeRepeatDays(s string) RepeatDays {
	var d RepeatDays
	if len(s) != DaysPerWeek {
		return d
	}
	for i := 0; i < DaysPerWeek; i++ {
		d[i] = s[i] == '1'
	}
	return d
}

var dayAbbrev = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ParseRepeatDays parses a comma-separated list of weekday names ("mon,wed,fri").
// The shorthands "daily", "weekdays", "weekends" and "none" are also accepted.
// Full names and three-letter abbreviations are case-insensitive.
func ParseRepeatDays(s string) (RepeatDays, error) {
	var d RepeatDays

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "once":
		return d, nil
	case "daily", "everyday", "every day":
		for i := range d {
			d[i] = true
		}
		return d, nil
	case "weekdays":
		for i := time.Monday; i <= time.Friday; i++ {
			d[i] = true
		}
		return d, nil
	case "weekends":
		d[time.Saturday] = true
		d[time.Sunday] = true
		return d, nil
	}

	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		found := false
		for i := 0; i < DaysPerWeek; i++ {
			full := strings.ToLower(time.Weekday(i).String())
			if name == full || name == strings.ToLower(dayAbbrev[i]) {
				d[i] = true
				found = true
				break
			}
		}
		if !found {
			return RepeatDays{}, fmt.Errorf("%w: unknown day %q", ErrInvalidRepeatDays, part)
		}
	}
	return d, nil
}

// Alarm is a time-of-day reminder. Hour and Minute are a naive local wall-clock time.
type Alarm struct {
	ID            int64
	Hour          int
	Minute        int
	Label         string
	Enabled       bool
	RepeatDays    RepeatDays
	Vibrate       bool
	RingtoneIndex int
}

// New returns an enabled one-shot alarm at the given time with the default
// presentation settings.
func New(hour, minute int) *Alarm {
	return &Alarm{
		Hour:    hour,
		Minute:  minute,
		Enabled: true,
		Vibrate: true,
	}
}

// IsRepeating reports whether any weekday is active.
func (a *Alarm) IsRepeating() bool {
	return a.RepeatDays.Any()
}

// TimeString formats the alarm time as zero-padded "HH:MM".
func (a *Alarm) TimeString() string {
	return fmt.Sprintf("%02d:%02d", a.Hour, a.Minute)
}

// SetRingtoneIndex stores i, replacing out-of-range values with 0.
func (a *Alarm) SetRingtoneIndex(i int) {
	a.RingtoneIndex = NormalizeRingtoneIndex(i)
}

// Validate checks the time-of-day fields.
func (a *Alarm) Validate() error {
	if a.Hour < 0 || a.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidTime, a.Hour)
	}
	if a.Minute < 0 || a.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidTime, a.Minute)
	}
	return nil
}

// Clone returns a copy that shares no state with a.
func (a *Alarm) Clone() *Alarm {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Snapshot captures the fields handed to a wake timer at arming time.
func (a *Alarm) Snapshot() Snapshot {
	return Snapshot{
		AlarmID:       a.ID,
		Hour:          a.Hour,
		Minute:        a.Minute,
		Label:         a.Label,
		Vibrate:       a.Vibrate,
		RingtoneIndex: a.RingtoneIndex,
	}
}

// Snapshot is the payload delivered to the fire callback. It is a copy taken
// when the timer was armed; later edits to the record do not reach it.
type Snapshot struct {
	AlarmID       int64  `json:"alarm_id"`
	Hour          int    `json:"hour"`
	Minute        int    `json:"minute"`
	Label         string `json:"label"`
	Vibrate       bool   `json:"vibrate"`
	RingtoneIndex int    `json:"ringtone_index"`
}

// TimeString formats the snapshot time as zero-padded "HH:MM".
func (s Snapshot) TimeString() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// NormalizeRingtoneIndex maps anything outside [0, RingtoneCount) to 0.
func NormalizeRingtoneIndex(i int) int {
	if i < 0 || i >= RingtoneCount {
		return 0
	}
	return i
}

// RingtoneName returns the display name of a bundled ringtone.
func RingtoneName(i int) string {
	if i < 0 || i >= RingtoneCount {
		return "Default"
	}
	return fmt.Sprintf("Ringtone %d", i+1)
}

// ParseTimeOfDay parses "H:MM" or "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t.Hour(), t.Minute(), nil
}
