package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(mode Mode, seconds int, at time.Time, interrupted bool, taskID *string) SessionRecord {
	return NewSessionRecord(taskID, nil, mode, seconds, at, interrupted)
}

func TestTotalFocusTime_ExcludesInterrupted(t *testing.T) {
	now := time.Now()
	records := []SessionRecord{
		record(ModeFocus, 1500, now, false, nil),
		record(ModeFocus, 1500, now, true, nil),
	}

	assert.Equal(t, 1500*time.Second, TotalFocusTime(records, nil, nil))
}

func TestTotalFocusTime_Filters(t *testing.T) {
	day := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	taskA := strPtr("a")
	taskB := strPtr("b")
	records := []SessionRecord{
		record(ModeFocus, 100, day.AddDate(0, 0, -3), false, taskA),
		record(ModeFocus, 200, day, false, taskA),
		record(ModeFocus, 400, day, false, taskB),
		record(ModeShortBreak, 300, day, false, taskA),
	}

	t.Run("by task", func(t *testing.T) {
		assert.Equal(t, 300*time.Second, TotalFocusTime(records, taskA, nil))
	})

	t.Run("by range inclusive", func(t *testing.T) {
		rng := &DateRange{Start: day, End: day}
		assert.Equal(t, 600*time.Second, TotalFocusTime(records, nil, rng))
	})

	t.Run("by task and range", func(t *testing.T) {
		rng := &DateRange{Start: day.AddDate(0, 0, -1), End: day.AddDate(0, 0, 1)}
		assert.Equal(t, 200*time.Second, TotalFocusTime(records, taskA, rng))
	})

	t.Run("breaks never count", func(t *testing.T) {
		breaks := []SessionRecord{record(ModeLongBreak, 900, day, false, nil)}
		assert.Zero(t, TotalFocusTime(breaks, nil, nil))
	})
}

func TestSessionsByTask(t *testing.T) {
	now := time.Now()
	records := []SessionRecord{
		record(ModeFocus, 10, now, false, strPtr("a")),
		record(ModeFocus, 10, now, true, strPtr("b")),
		record(ModeShortBreak, 10, now, false, nil),
		record(ModeFocus, 10, now, true, strPtr("a")),
	}

	got := SessionsByTask(records, "a")
	require.Len(t, got, 2)
	assert.True(t, got[1].Interrupted)
	assert.Empty(t, SessionsByTask(records, "missing"))
}

func TestSessionsByDate(t *testing.T) {
	records := []SessionRecord{
		record(ModeFocus, 10, time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC), false, nil),
		record(ModeFocus, 10, time.Date(2026, 10, 19, 0, 1, 0, 0, time.UTC), false, nil),
		record(ModeShortBreak, 10, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), true, nil),
	}

	assert.Len(t, SessionsByDate(records, "2026-10-19"), 2)
	assert.Len(t, SessionsByDate(records, "2026-10"), 3)
	assert.Empty(t, SessionsByDate(records, "2025-01-01"))
}

func TestTodayAndWeekCounts(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	records := []SessionRecord{
		record(ModeFocus, 10, now.Add(-time.Hour), false, nil),
		record(ModeFocus, 10, now.Add(-2*time.Hour), true, nil),
		record(ModeShortBreak, 10, now.Add(-time.Hour), false, nil),
		record(ModeFocus, 10, now.AddDate(0, 0, -2), false, nil),
		record(ModeFocus, 10, now.AddDate(0, 0, -10), false, nil),
	}

	assert.Equal(t, 1, TodaySessionsCount(records, now))
	assert.Equal(t, 2, WeekSessionsCount(records, now))

	stats := ComputeStats(records, now)
	assert.Equal(t, 1, stats.TodaySessions)
	assert.Equal(t, 2, stats.WeekSessions)
	assert.Equal(t, 30*time.Second, stats.TotalFocus)
}

func TestDailyFocus(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	records := []SessionRecord{
		record(ModeFocus, 60, now, false, nil),
		record(ModeFocus, 60, now.AddDate(0, 0, -1), false, nil),
		record(ModeFocus, 60, now.AddDate(0, 0, -1), false, nil),
		record(ModeFocus, 60, now.AddDate(0, 0, -1), true, nil),
		record(ModeFocus, 60, now.AddDate(0, 0, -5), false, nil),
	}

	days := DailyFocus(records, now, 3)
	require.Len(t, days, 3)
	assert.Equal(t, 17, days[0].Date.Day())
	assert.Equal(t, 0, days[0].Sessions)
	assert.Equal(t, 2, days[1].Sessions)
	assert.Equal(t, 2*time.Minute, days[1].Focus)
	assert.Equal(t, 1, days[2].Sessions)

	assert.Nil(t, DailyFocus(records, now, 0))
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	rng, err := ParseDateRange("", "", now)
	require.NoError(t, err)
	assert.Nil(t, rng)

	rng, err = ParseDateRange("2026-10-01", "2026-10-05", now)
	require.NoError(t, err)
	assert.True(t, rng.Contains(time.Date(2026, 10, 5, 23, 59, 0, 0, time.UTC)), "upper bound covers the whole day")
	assert.False(t, rng.Contains(time.Date(2026, 10, 6, 0, 0, 0, 0, time.UTC)))

	rng, err = ParseDateRange("2026-10-01", "", now)
	require.NoError(t, err)
	assert.Equal(t, now, rng.End)

	_, err = ParseDateRange("2026-10-05", "2026-10-01", now)
	assert.Error(t, err)

	_, err = ParseDateRange("10/05/2026", "", now)
	assert.Error(t, err)
}
