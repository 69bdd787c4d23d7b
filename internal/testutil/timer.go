package testutil

import (
	"errors"
	"sync"
	"time"

	"alarm-go/internal/alarm"
	"alarm-go/internal/waketimer"
)

// ErrSlotFailure is returned by FailingWakeTimer for slots marked to fail.
var ErrSlotFailure = errors.New("stub wake timer failure")

// FailingWakeTimer wraps a MemoryWakeTimer and fails Arm or Cancel for
// chosen slots. It also records every call it receives.
type FailingWakeTimer struct {
	*waketimer.MemoryWakeTimer

	mu         sync.Mutex
	fail       map[alarm.Slot]bool
	failCancel map[alarm.Slot]bool
	arms       []alarm.Slot
	cancels    []alarm.Slot
}

// NewFailingWakeTimer creates a wake timer whose Arm fails for each slot given.
func NewFailingWakeTimer(failing ...alarm.Slot) *FailingWakeTimer {
	f := &FailingWakeTimer{
		MemoryWakeTimer: waketimer.NewMemoryWakeTimer(),
		fail:            make(map[alarm.Slot]bool),
		failCancel:      make(map[alarm.Slot]bool),
	}
	for _, s := range failing {
		f.fail[s] = true
	}
	return f
}

// FailCancel makes Cancel fail for each slot given. The slot keeps any entry
// it holds.
func (f *FailingWakeTimer) FailCancel(slots ...alarm.Slot) *FailingWakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range slots {
		f.failCancel[s] = true
	}
	return f
}

func (f *FailingWakeTimer) Arm(slot alarm.Slot, at time.Time, payload alarm.Snapshot) error {
	f.mu.Lock()
	f.arms = append(f.arms, slot)
	fail := f.fail[slot]
	f.mu.Unlock()

	if fail {
		return ErrSlotFailure
	}
	return f.MemoryWakeTimer.Arm(slot, at, payload)
}

func (f *FailingWakeTimer) Cancel(slot alarm.Slot) error {
	f.mu.Lock()
	f.cancels = append(f.cancels, slot)
	fail := f.failCancel[slot]
	f.mu.Unlock()

	if fail {
		return ErrSlotFailure
	}
	return f.MemoryWakeTimer.Cancel(slot)
}

// Arms returns the slots passed to Arm, in call order.
func (f *FailingWakeTimer) Arms() []alarm.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alarm.Slot(nil), f.arms...)
}

// Cancels returns the slots passed to Cancel, in call order.
func (f *FailingWakeTimer) Cancels() []alarm.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alarm.Slot(nil), f.cancels...)
}

// Reset clears the recorded calls.
func (f *FailingWakeTimer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.arms = nil
	f.cancels = nil
}
