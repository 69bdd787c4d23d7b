package alarm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"alarm-go/internal/alarm"
)

// 2024-01-15 is a Monday.
func at(day, hour, minute, second int) time.Time {
	return time.Date(2024, 1, day, hour, minute, second, 0, time.UTC)
}

func repeating(hour, minute int, days ...time.Weekday) *alarm.Alarm {
	a := alarm.New(hour, minute)
	for _, d := range days {
		a.RepeatDays[d] = true
	}
	return a
}

func requireSameInstant(t *testing.T, want, got time.Time) {
	t.Helper()
	require.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestNextOccurrence_OneShot(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		now  time.Time
		want time.Time
	}{
		{name: "later today", hour: 23, min: 59, now: at(15, 23, 58, 0), want: at(15, 23, 59, 0)},
		{name: "just passed", hour: 23, min: 59, now: at(15, 23, 59, 1), want: at(16, 23, 59, 0)},
		{name: "exactly now rolls over", hour: 7, min: 0, now: at(15, 7, 0, 0), want: at(16, 7, 0, 0)},
		{name: "earlier today", hour: 6, min: 30, now: at(15, 8, 0, 0), want: at(16, 6, 30, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := alarm.NextOccurrence(alarm.New(tt.hour, tt.min), tt.now)
			requireSameInstant(t, tt.want, got)
		})
	}
}

func TestNextOccurrence_Repeating(t *testing.T) {
	monWed := repeating(7, 0, time.Monday, time.Wednesday)

	t.Run("today's slot passed picks next active day", func(t *testing.T) {
		requireSameInstant(t, at(17, 7, 0, 0), alarm.NextOccurrence(monWed, at(15, 8, 0, 0)))
	})

	t.Run("today's slot ahead fires today", func(t *testing.T) {
		requireSameInstant(t, at(15, 7, 0, 0), alarm.NextOccurrence(monWed, at(15, 6, 0, 0)))
	})

	t.Run("only today active and passed waits a week", func(t *testing.T) {
		mon := repeating(7, 0, time.Monday)
		requireSameInstant(t, at(22, 7, 0, 0), alarm.NextOccurrence(mon, at(15, 8, 0, 0)))
	})

	t.Run("always strictly after now", func(t *testing.T) {
		now := at(15, 7, 0, 0)
		daily := repeating(7, 0, time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)
		got := alarm.NextOccurrence(daily, now)
		require.True(t, got.After(now))
		requireSameInstant(t, at(16, 7, 0, 0), got)
	})
}

func TestNextOccurrence_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, loc)

	got := alarm.NextOccurrence(alarm.New(9, 15), now)
	require.Equal(t, loc, got.Location())
	require.Equal(t, 9, got.Hour())
	require.Equal(t, 15, got.Minute())
}

func TestNextOccurrencesWithinWeek(t *testing.T) {
	monWed := repeating(7, 0, time.Monday, time.Wednesday)

	occ := alarm.NextOccurrencesWithinWeek(monWed, at(15, 8, 0, 0))
	require.Len(t, occ, 2)
	require.Equal(t, time.Wednesday, occ[0].Weekday)
	requireSameInstant(t, at(17, 7, 0, 0), occ[0].At)
	require.Equal(t, time.Monday, occ[1].Weekday)
	requireSameInstant(t, at(22, 7, 0, 0), occ[1].At)

	require.Empty(t, alarm.NextOccurrencesWithinWeek(alarm.New(7, 0), at(15, 8, 0, 0)))
}

func TestRepeatSummary(t *testing.T) {
	require.Equal(t, "", alarm.RepeatSummary(alarm.New(7, 0)))
	require.Equal(t, "Every day", alarm.RepeatSummary(repeating(7, 0,
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday)))
	require.Equal(t, "Mon, Wed, Fri", alarm.RepeatSummary(repeating(7, 0, time.Friday, time.Monday, time.Wednesday)))
}

func TestRecurrenceRule(t *testing.T) {
	require.Nil(t, alarm.RecurrenceRule(alarm.New(7, 0), at(15, 0, 0, 0)))

	opt := alarm.RecurrenceRule(repeating(6, 45, time.Tuesday, time.Thursday), at(15, 0, 0, 0))
	require.NotNil(t, opt)
	require.Len(t, opt.Byweekday, 2)
	require.Equal(t, []int{6}, opt.Byhour)
	require.Equal(t, []int{45}, opt.Byminute)
}

func TestUpcoming(t *testing.T) {
	t.Run("repeating", func(t *testing.T) {
		got, err := alarm.Upcoming(repeating(7, 0, time.Monday, time.Wednesday), at(15, 8, 0, 0), 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		requireSameInstant(t, at(17, 7, 0, 0), got[0])
		requireSameInstant(t, at(22, 7, 0, 0), got[1])
		requireSameInstant(t, at(24, 7, 0, 0), got[2])
	})

	t.Run("one-shot has a single occurrence", func(t *testing.T) {
		got, err := alarm.Upcoming(alarm.New(6, 0), at(15, 8, 0, 0), 5)
		require.NoError(t, err)
		require.Len(t, got, 1)
		requireSameInstant(t, at(16, 6, 0, 0), got[0])
	})

	t.Run("first matches NextOccurrence", func(t *testing.T) {
		a := repeating(7, 0, time.Monday, time.Wednesday)
		now := at(15, 6, 0, 0)
		got, err := alarm.Upcoming(a, now, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		requireSameInstant(t, alarm.NextOccurrence(a, now), got[0])
	})

	t.Run("zero count", func(t *testing.T) {
		got, err := alarm.Upcoming(alarm.New(6, 0), at(15, 8, 0, 0), 0)
		require.NoError(t, err)
		require.Empty(t, got)
	})
}

// bruteForceNext walks forward one day at a time from today's slot and
// returns the first slot strictly after now that the alarm fires on.
func bruteForceNext(a *alarm.Alarm, now time.Time) time.Time {
	y, m, d := now.Date()
	for k := 0; k <= alarm.DaysPerWeek; k++ {
		c := time.Date(y, m, d+k, a.Hour, a.Minute, 0, 0, now.Location())
		if !c.After(now) {
			continue
		}
		if !a.IsRepeating() || a.RepeatDays.Has(c.Weekday()) {
			return c
		}
	}
	return time.Time{}
}

func TestNextOccurrence_Properties(t *testing.T) {
	times := [][2]int{{0, 0}, {7, 0}, {12, 29}, {23, 59}}
	start := at(15, 0, 0, 0)
	end := start.AddDate(0, 0, 8)

	for mask := 0; mask < 1<<alarm.DaysPerWeek; mask++ {
		for _, hm := range times {
			a := alarm.New(hm[0], hm[1])
			for d := 0; d < alarm.DaysPerWeek; d++ {
				a.RepeatDays[d] = mask&(1<<d) != 0
			}

			for now := start; now.Before(end); now = now.Add(97*time.Minute + 13*time.Second) {
				got := alarm.NextOccurrence(a, now)

				if !got.After(now) {
					t.Fatalf("mask=%07b %s at %s: %s is not after now", mask, a.TimeString(), now, got)
				}
				if got.Hour() != a.Hour || got.Minute() != a.Minute || got.Second() != 0 || got.Nanosecond() != 0 {
					t.Fatalf("mask=%07b %s at %s: %s is not on the alarm's minute", mask, a.TimeString(), now, got)
				}
				if want := bruteForceNext(a, now); !got.Equal(want) {
					t.Fatalf("mask=%07b %s at %s: got %s, want %s", mask, a.TimeString(), now, got, want)
				}

				if !a.IsRepeating() {
					if got.Sub(now) > 24*time.Hour+time.Minute {
						t.Fatalf("%s at %s: one-shot %s is more than a day away", a.TimeString(), now, got)
					}
					continue
				}
				if !a.RepeatDays.Has(got.Weekday()) {
					t.Fatalf("mask=%07b at %s: %s falls on inactive %s", mask, now, got, got.Weekday())
				}
				if got.Sub(now) > 7*24*time.Hour {
					t.Fatalf("mask=%07b at %s: %s is more than a week away", mask, now, got)
				}
			}
		}
	}
}
