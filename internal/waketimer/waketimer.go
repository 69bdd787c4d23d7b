// Package waketimer provides the wake-timer backends that alarms are armed
// against. A backend holds at most one pending entry per slot; arming a slot
// that is already pending replaces it.
package waketimer

import (
	"sort"
	"time"

	"alarm-go/internal/alarm"
)

// Entry is one pending wake timer.
type Entry struct {
	Slot    alarm.Slot     `json:"slot"`
	At      time.Time      `json:"at"`
	Payload alarm.Snapshot `json:"payload"`
}

// Spool is a WakeTimer whose pending entries can be inspected and collected
// once due.
type Spool interface {
	alarm.WakeTimer

	// Pending returns every armed entry ordered by trigger time.
	Pending() ([]Entry, error)

	// Consume removes e's slot only if it still holds an entry due at e.At.
	// It reports false when the slot is empty or was re-armed since e was read.
	Consume(e Entry) (bool, error)
}

// Due filters entries down to those whose trigger time is at or before now.
func Due(entries []Entry, now time.Time) []Entry {
	var due []Entry
	for _, e := range entries {
		if !e.At.After(now) {
			due = append(due, e)
		}
	}
	return due
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].At.Equal(entries[j].At) {
			return entries[i].Slot.String() < entries[j].Slot.String()
		}
		return entries[i].At.Before(entries[j].At)
	})
}
