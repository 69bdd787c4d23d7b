package alarm

import (
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Occurrence is the next trigger instant for one active weekday.
type Occurrence struct {
	Weekday time.Weekday
	At      time.Time
}

// candidate returns today's slot: now's calendar date at the alarm's
// hour:minute:00.000 in now's location.
func candidate(a *Alarm, now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, a.Hour, a.Minute, 0, 0, now.Location())
}

// NextOccurrence returns the soonest instant strictly after now at which a fires.
//
// A one-shot alarm fires today if its time is still ahead, otherwise tomorrow.
// A repeating alarm fires on the earliest active weekday whose slot is still
// ahead; today counts only while today's slot has not passed.
func NextOccurrence(a *Alarm, now time.Time) time.Time {
	c := candidate(a, now)

	if !a.IsRepeating() {
		if !c.After(now) {
			c = c.AddDate(0, 0, 1)
		}
		return c
	}

	occ := NextOccurrencesWithinWeek(a, now)
	if len(occ) == 0 {
		return c.AddDate(0, 0, 1)
	}
	return occ[0].At
}

// NextOccurrencesWithinWeek returns one instant per active weekday, each the
// next time that weekday's slot comes around after now, ordered soonest first.
// Today's weekday maps to today only if its slot is still ahead, otherwise to
// the same weekday next week.
func NextOccurrencesWithinWeek(a *Alarm, now time.Time) []Occurrence {
	c := candidate(a, now)
	today := int(now.Weekday())

	var out []Occurrence
	for d := 0; d < DaysPerWeek; d++ {
		if !a.RepeatDays[d] {
			continue
		}
		offset := (d - today + DaysPerWeek) % DaysPerWeek
		if offset == 0 && !c.After(now) {
			offset = DaysPerWeek
		}
		out = append(out, Occurrence{
			Weekday: time.Weekday(d),
			At:      c.AddDate(0, 0, offset),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

// RepeatSummary renders the active weekdays for display: "" for a one-shot
// alarm, "Every day" when all seven are active, otherwise abbreviations in
// Sunday-first order such as "Mon, Wed, Fri".
func RepeatSummary(a *Alarm) string {
	switch a.RepeatDays.Count() {
	case 0:
		return ""
	case DaysPerWeek:
		return "Every day"
	}

	names := make([]string, 0, DaysPerWeek)
	for d, on := range a.RepeatDays {
		if on {
			names = append(names, dayAbbrev[d])
		}
	}
	return strings.Join(names, ", ")
}

var rruleWeekdays = [DaysPerWeek]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// RecurrenceRule describes a repeating alarm as a weekly RRULE anchored at
// start. It returns nil for one-shot alarms.
func RecurrenceRule(a *Alarm, start time.Time) *rrule.ROption {
	if !a.IsRepeating() {
		return nil
	}

	days := make([]rrule.Weekday, 0, DaysPerWeek)
	for d, on := range a.RepeatDays {
		if on {
			days = append(days, rruleWeekdays[d])
		}
	}

	return &rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: days,
		Byhour:    []int{a.Hour},
		Byminute:  []int{a.Minute},
		Bysecond:  []int{0},
	}
}

// Upcoming returns the next n trigger instants after now. A one-shot alarm
// has at most one.
func Upcoming(a *Alarm, now time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	if !a.IsRepeating() {
		return []time.Time{NextOccurrence(a, now)}, nil
	}

	// Anchor at midnight so today's slot is part of the set; the window always
	// covers n occurrences since at least one day per week is active.
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	r, err := rrule.NewRRule(*RecurrenceRule(a, start))
	if err != nil {
		return nil, err
	}

	times := r.Between(now, now.AddDate(0, 0, DaysPerWeek*(n+1)), false)
	if len(times) > n {
		times = times[:n]
	}
	return times, nil
}
