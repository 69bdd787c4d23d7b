package alarm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alarm-go/internal/alarm"
	"alarm-go/internal/database"
	"alarm-go/internal/testutil"
	"alarm-go/internal/waketimer"
)

type serviceFixture struct {
	svc    *alarm.AlarmService
	store  *database.SQLiteStore
	timers *waketimer.MemoryWakeTimer
	clock  *testutil.StubClock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	timers := waketimer.NewMemoryWakeTimer()
	clock := testutil.FixedClock()
	svc := alarm.NewAlarmService(store, timers, alarm.NewNopLogger(), clock, testutil.NewStubIDGenerator())
	return &serviceFixture{svc: svc, store: store, timers: timers, clock: clock}
}

func TestAlarmService_Create(t *testing.T) {
	t.Run("stores and arms", func(t *testing.T) {
		f := newServiceFixture(t)

		a := alarm.New(9, 0)
		a.Label = "standup"
		created, err := f.svc.Create(a)
		require.NoError(t, err)
		require.Equal(t, int64(1), created.ID)

		stored, err := f.store.FindAlarm(created.ID)
		require.NoError(t, err)
		require.Equal(t, created, stored)

		e, ok := f.timers.Get(alarm.OnceSlot(1))
		require.True(t, ok)
		requireSameInstant(t, at(15, 9, 0, 0), e.At)
		require.Equal(t, "standup", e.Payload.Label)
	})

	t.Run("normalizes ringtone index", func(t *testing.T) {
		f := newServiceFixture(t)

		a := alarm.New(9, 0)
		a.RingtoneIndex = 15
		created, err := f.svc.Create(a)
		require.NoError(t, err)

		stored, err := f.store.FindAlarm(created.ID)
		require.NoError(t, err)
		require.Equal(t, 0, stored.RingtoneIndex)
	})

	t.Run("rejects invalid time", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.svc.Create(alarm.New(25, 0))
		require.ErrorIs(t, err, alarm.ErrInvalidTime)

		all, err := f.svc.List()
		require.NoError(t, err)
		require.Empty(t, all)
	})

	t.Run("disabled alarm is stored but not armed", func(t *testing.T) {
		f := newServiceFixture(t)

		a := alarm.New(9, 0)
		a.Enabled = false
		_, err := f.svc.Create(a)
		require.NoError(t, err)
		require.Zero(t, f.timers.Len())
	})

	t.Run("without wake timers the alarm is still stored", func(t *testing.T) {
		store := testutil.NewTestStore(t)
		svc := alarm.NewAlarmService(store, nil, alarm.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

		created, err := svc.Create(alarm.New(9, 0))
		require.NoError(t, err)

		stored, err := store.FindAlarm(created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
	})
}

func TestAlarmService_Update(t *testing.T) {
	t.Run("cancels old slots and arms new ones", func(t *testing.T) {
		f := newServiceFixture(t)

		created, err := f.svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
		require.NoError(t, err)
		require.Equal(t, 2, f.timers.Len())

		edited := created.Clone()
		edited.RepeatDays = alarm.RepeatDays{}
		edited.RepeatDays[time.Friday] = true
		edited.Hour = 6
		require.NoError(t, f.svc.Update(edited))

		pending, err := f.timers.Pending()
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, alarm.WeeklySlot(created.ID, time.Friday), pending[0].Slot)
		requireSameInstant(t, at(19, 6, 0, 0), pending[0].At)

		stored, err := f.store.FindAlarm(created.ID)
		require.NoError(t, err)
		require.Equal(t, 6, stored.Hour)
		require.Equal(t, "0000010", stored.RepeatDays.String())
	})

	t.Run("missing alarm is ignored", func(t *testing.T) {
		f := newServiceFixture(t)

		ghost := alarm.New(7, 0)
		ghost.ID = 99
		require.NoError(t, f.svc.Update(ghost))

		stored, err := f.store.FindAlarm(99)
		require.NoError(t, err)
		require.Nil(t, stored)
		require.Zero(t, f.timers.Len())
	})
}

func TestAlarmService_SetEnabled(t *testing.T) {
	f := newServiceFixture(t)

	created, err := f.svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
	require.NoError(t, err)

	require.NoError(t, f.svc.SetEnabled(created.ID, false))
	require.Zero(t, f.timers.Len())
	stored, err := f.store.FindAlarm(created.ID)
	require.NoError(t, err)
	require.False(t, stored.Enabled)

	require.NoError(t, f.svc.SetEnabled(created.ID, true))
	require.Equal(t, 2, f.timers.Len())
	stored, err = f.store.FindAlarm(created.ID)
	require.NoError(t, err)
	require.True(t, stored.Enabled)

	require.NoError(t, f.svc.SetEnabled(404, true), "toggling a missing alarm is a no-op")
}

func TestAlarmService_Delete(t *testing.T) {
	f := newServiceFixture(t)

	created, err := f.svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(created.ID))
	require.Zero(t, f.timers.Len())

	stored, err := f.store.FindAlarm(created.ID)
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestAlarmService_DeleteWithCancelFailure(t *testing.T) {
	store := testutil.NewTestStore(t)
	timers := testutil.NewFailingWakeTimer().FailCancel(alarm.WeeklySlot(1, time.Friday))
	svc := alarm.NewAlarmService(store, timers, alarm.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	created, err := svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	err = svc.Delete(created.ID)
	require.ErrorIs(t, err, testutil.ErrSlotFailure)

	stored, err := store.FindAlarm(created.ID)
	require.NoError(t, err)
	require.Nil(t, stored, "record is removed even when a slot fails to cancel")
	require.Zero(t, timers.Len())
}

func TestAlarmService_DeleteWithoutTimers(t *testing.T) {
	store := testutil.NewTestStore(t)
	svc := alarm.NewAlarmService(store, nil, alarm.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	created, err := svc.Create(alarm.New(7, 0))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(created.ID))

	stored, err := store.FindAlarm(created.ID)
	require.NoError(t, err)
	require.Nil(t, stored)
}

func TestAlarmService_Snooze(t *testing.T) {
	t.Run("arms the one-shot slot without touching the record", func(t *testing.T) {
		f := newServiceFixture(t)

		created, err := f.svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
		require.NoError(t, err)

		until, err := f.svc.Snooze(created.ID)
		require.NoError(t, err)
		requireSameInstant(t, at(15, 8, 10, 0), until)

		e, ok := f.timers.Get(alarm.OnceSlot(created.ID))
		require.True(t, ok)
		requireSameInstant(t, until, e.At)
		require.Equal(t, 3, f.timers.Len(), "weekday slots stay armed")

		stored, err := f.store.FindAlarm(created.ID)
		require.NoError(t, err)
		require.Equal(t, created, stored)
	})

	t.Run("snoozes a disabled alarm", func(t *testing.T) {
		f := newServiceFixture(t)

		a := alarm.New(7, 0)
		a.Enabled = false
		created, err := f.svc.Create(a)
		require.NoError(t, err)

		_, err = f.svc.Snooze(created.ID)
		require.NoError(t, err)
		require.Equal(t, 1, f.timers.Len())
	})

	t.Run("crosses midnight", func(t *testing.T) {
		f := newServiceFixture(t)
		f.clock.Set(at(15, 23, 55, 0))

		created, err := f.svc.Create(alarm.New(23, 55))
		require.NoError(t, err)

		until, err := f.svc.Snooze(created.ID)
		require.NoError(t, err)
		requireSameInstant(t, at(16, 0, 5, 0), until)
	})

	t.Run("uses the configured interval", func(t *testing.T) {
		f := newServiceFixture(t)
		f.svc.SetSnoozeInterval(5 * time.Minute)

		created, err := f.svc.Create(alarm.New(7, 0))
		require.NoError(t, err)

		until, err := f.svc.Snooze(created.ID)
		require.NoError(t, err)
		requireSameInstant(t, at(15, 8, 5, 0), until)
	})

	t.Run("missing alarm returns zero time", func(t *testing.T) {
		f := newServiceFixture(t)

		until, err := f.svc.Snooze(77)
		require.NoError(t, err)
		require.True(t, until.IsZero())
	})
}

func TestAlarmService_RearmAll(t *testing.T) {
	f := newServiceFixture(t)

	enabled := repeating(7, 0, time.Monday)
	enabled.ID = 10
	require.NoError(t, f.store.CreateAlarm(enabled))
	once := alarm.New(21, 0)
	once.ID = 11
	require.NoError(t, f.store.CreateAlarm(once))
	disabled := alarm.New(6, 0)
	disabled.ID = 12
	disabled.Enabled = false
	require.NoError(t, f.store.CreateAlarm(disabled))

	n, err := f.svc.RearmAll()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, f.timers.Len())

	n, err = f.svc.RearmAll()
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, f.timers.Len(), "re-arming replaces existing timers")
}

func TestAlarmService_HandleFired(t *testing.T) {
	t.Run("weekday slot is armed for next week", func(t *testing.T) {
		f := newServiceFixture(t)
		f.clock.Set(at(15, 6, 0, 0))

		created, err := f.svc.Create(repeating(7, 0, time.Monday, time.Wednesday))
		require.NoError(t, err)

		slot := alarm.WeeklySlot(created.ID, time.Monday)
		e, ok := f.timers.Get(slot)
		require.True(t, ok)
		requireSameInstant(t, at(15, 7, 0, 0), e.At)

		// delivery consumes the slot
		require.NoError(t, f.timers.Cancel(slot))
		f.clock.Set(at(15, 7, 0, 1))

		require.NoError(t, f.svc.HandleFired(slot, e.Payload))

		e, ok = f.timers.Get(slot)
		require.True(t, ok)
		requireSameInstant(t, at(22, 7, 0, 0), e.At)
	})

	t.Run("one-shot slot is not re-armed", func(t *testing.T) {
		f := newServiceFixture(t)
		created, err := f.svc.Create(alarm.New(9, 0))
		require.NoError(t, err)

		slot := alarm.OnceSlot(created.ID)
		e, _ := f.timers.Get(slot)
		require.NoError(t, f.timers.Cancel(slot))

		require.NoError(t, f.svc.HandleFired(slot, e.Payload))
		require.Zero(t, f.timers.Len())
	})

	t.Run("deleted alarm is ignored", func(t *testing.T) {
		f := newServiceFixture(t)
		slot := alarm.WeeklySlot(55, time.Monday)

		require.NoError(t, f.svc.HandleFired(slot, alarm.Snapshot{AlarmID: 55}))
		require.Zero(t, f.timers.Len())
	})
}
