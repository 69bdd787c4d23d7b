// Package export renders alarms as an iCalendar feed so they can be imported
// into calendar applications.
package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"alarm-go/internal/alarm"
)

// ProductID is written as the calendar PRODID.
const ProductID = "-//alarm-go//alarmctl//EN"

// ErrNothingToExport is returned when no enabled alarm is left to export.
var ErrNothingToExport = errors.New("no enabled alarms to export")

// floatingLayout is a DATE-TIME without zone: a wall-clock time in whatever
// zone the reader is in, which is how alarm times are defined.
const floatingLayout = "20060102T150405"

// Calendar builds a VCALENDAR with one VEVENT per enabled alarm. Each event
// starts at the alarm's next occurrence after now, repeats weekly on its
// active days, and carries a VALARM that triggers at the start.
func Calendar(alarms []*alarm.Alarm, now time.Time) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, a := range alarms {
		if !a.Enabled {
			continue
		}
		cal.Children = append(cal.Children, event(a, now).Component)
	}

	if len(cal.Children) == 0 {
		return nil, ErrNothingToExport
	}
	return cal, nil
}

// WriteCalendar encodes the calendar for alarms to w.
func WriteCalendar(w io.Writer, alarms []*alarm.Alarm, now time.Time) error {
	cal, err := Calendar(alarms, now)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}

func event(a *alarm.Alarm, now time.Time) *ical.Event {
	start := alarm.NextOccurrence(a, now)

	e := ical.NewEvent()
	e.Props.SetText(ical.PropUID, fmt.Sprintf("alarm-%d@alarmctl", a.ID))
	e.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	e.Props.SetText(ical.PropSummary, summary(a))
	e.Props.Set(floating(ical.PropDateTimeStart, start))
	e.Props.Set(floating(ical.PropDateTimeEnd, start.Add(time.Minute)))

	if rule := alarm.RecurrenceRule(a, start); rule != nil {
		e.Props.SetRecurrenceRule(rule)
	}

	desc := alarm.RingtoneName(a.RingtoneIndex)
	if a.Vibrate {
		desc += ", vibrate"
	}
	e.Props.SetText(ical.PropDescription, desc)

	valarm := ical.NewComponent(ical.CompAlarm)
	valarm.Props.SetText(ical.PropAction, "DISPLAY")
	valarm.Props.SetText(ical.PropDescription, summary(a))
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.SetValueType(ical.ValueDuration)
	trigger.Value = "PT0S"
	valarm.Props.Set(trigger)
	e.Children = append(e.Children, valarm)

	return e
}

func floating(name string, t time.Time) *ical.Prop {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDateTime)
	p.Value = t.Format(floatingLayout)
	return p
}

func summary(a *alarm.Alarm) string {
	if a.Label != "" {
		return a.Label
	}
	return "Alarm " + a.TimeString()
}
