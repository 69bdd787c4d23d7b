package waketimer

import (
	"sync"
	"time"

	"alarm-go/internal/alarm"
)

// MemoryWakeTimer is an in-memory implementation of the Spool interface.
// Entries do not outlive the process, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryWakeTimer struct {
	mu      sync.RWMutex
	entries map[alarm.Slot]Entry
}

// NewMemoryWakeTimer creates an empty in-memory wake timer.
func NewMemoryWakeTimer() *MemoryWakeTimer {
	return &MemoryWakeTimer{
		entries: make(map[alarm.Slot]Entry),
	}
}

// Arm schedules payload for delivery at the given instant, replacing any
// entry already pending for slot.
func (m *MemoryWakeTimer) Arm(slot alarm.Slot, at time.Time, payload alarm.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[slot] = Entry{Slot: slot, At: at, Payload: payload}
	return nil
}

// Cancel removes the entry for slot. Cancelling an empty slot is a no-op.
func (m *MemoryWakeTimer) Cancel(slot alarm.Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, slot)
	return nil
}

// Consume removes e's slot if it still holds an entry due at e.At.
func (m *MemoryWakeTimer) Consume(e Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.entries[e.Slot]
	if !ok || !cur.At.Equal(e.At) {
		return false, nil
	}
	delete(m.entries, e.Slot)
	return true, nil
}

// Get returns the entry pending for slot.
func (m *MemoryWakeTimer) Get(slot alarm.Slot) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[slot]
	return e, ok
}

// Pending returns every armed entry ordered by trigger time.
func (m *MemoryWakeTimer) Pending() ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

// Len returns the number of pending entries.
func (m *MemoryWakeTimer) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
