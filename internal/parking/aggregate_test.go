package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-service/internal/clock"
	"parking-service/internal/money"
)

// Friday 15 March 2024, midday IST.
var aggregateNow = at(2024, time.March, 15, 12, 0)

func sampleSessions(t *testing.T) []Session {
	return []Session{
		// 125 min, 40: medium stay, exits today.
		exitedSession(t, "TODAY", at(2024, time.March, 15, 9, 0), at(2024, time.March, 15, 11, 5), 20),
		// 105 min, 40: short stay, exits late on the 10th.
		exitedSession(t, "LATE", at(2024, time.March, 10, 22, 0), at(2024, time.March, 10, 23, 45), 20),
		// 420 min, 140: long stay.
		exitedSession(t, "LONG", at(2024, time.March, 12, 8, 0), at(2024, time.March, 12, 15, 0), 20),
		parkedSession("PARKED", at(2024, time.March, 14, 10, 0), 20),
		// Parked since long before the window.
		parkedSession("FORGOTTEN", at(2024, time.February, 1, 10, 0), 20),
		// Previous period: 60 min, 20, on the 3rd (7 days before the 10th).
		exitedSession(t, "PREVIOUS", at(2024, time.March, 3, 10, 0), at(2024, time.March, 3, 11, 0), 20),
	}
}

func newTestAggregator(policy ComparisonPolicy) *Aggregator {
	return NewAggregator(clock.NewFake(aggregateNow), ist, policy)
}

func TestAggregate_SevenDay(t *testing.T) {
	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sampleSessions(t), PeriodSevenDay)
	require.NoError(t, err)

	require.Len(t, snapshot.DailyBars, 7)
	assert.Equal(t, "2024-03-09", snapshot.DailyBars[0].Day.String())
	assert.Equal(t, "2024-03-15", snapshot.DailyBars[6].Day.String())
	assert.Equal(t, "SAT", snapshot.DailyBars[0].Label)
	assert.Equal(t, "FRI", snapshot.DailyBars[6].Label)
	assert.Equal(t, "2024-03-09 → 2024-03-15", snapshot.PeriodLabel)

	assert.Equal(t, "40", snapshot.DailyBars[1].CurrentRevenue.String())
	assert.Equal(t, "20", snapshot.DailyBars[1].PreviousRevenue.String())
	assert.Equal(t, "140", snapshot.DailyBars[3].CurrentRevenue.String())
	assert.Equal(t, "40", snapshot.DailyBars[6].CurrentRevenue.String())
	assert.True(t, snapshot.DailyBars[0].CurrentRevenue.IsZero())

	assert.Equal(t, "220", snapshot.TotalRevenue.String())
	assert.Equal(t, 25, snapshot.OccupancyRate)
	assert.Equal(t, 2, snapshot.ActiveSessionCount)
	assert.InDelta(t, 3.6, snapshot.AvgTurnoverHours, 1e-9)
	assert.Len(t, snapshot.SessionsInWindow, 4)

	require.Len(t, snapshot.DurationBuckets, 3)
	assert.Equal(t, 1, snapshot.DurationBuckets[0].Count)
	assert.Equal(t, 33, snapshot.DurationBuckets[0].Percentage)
	assert.Equal(t, 33, snapshot.DurationBuckets[1].Percentage)
	assert.Equal(t, 33, snapshot.DurationBuckets[2].Percentage)

	assert.True(t, snapshot.WindowStart.Equal(at(2024, time.March, 9, 0, 0)))
	assert.True(t, snapshot.WindowEnd.Before(at(2024, time.March, 16, 0, 0)))
}

func TestAggregate_BarsSumToTotal(t *testing.T) {
	for _, period := range []Period{PeriodSevenDay, PeriodThirtyDay, PeriodMonthToDate} {
		snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sampleSessions(t), period)
		require.NoError(t, err)

		var sum money.Decimal
		for _, bar := range snapshot.DailyBars {
			sum = sum.Add(bar.CurrentRevenue)
		}
		assert.True(t, sum.Equal(snapshot.TotalRevenue), "period %s", period)
	}
}

func TestAggregate_ThirtyDay(t *testing.T) {
	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sampleSessions(t), PeriodThirtyDay)
	require.NoError(t, err)

	require.Len(t, snapshot.DailyBars, 30)
	assert.Equal(t, "2024-02-15", snapshot.DailyBars[0].Day.String())
	assert.Equal(t, "15", snapshot.DailyBars[0].Label)
	assert.Equal(t, "", snapshot.DailyBars[1].Label)
	assert.Equal(t, "20", snapshot.DailyBars[5].Label)

	// The previous-period session now falls inside the window.
	assert.Equal(t, "240", snapshot.TotalRevenue.String())
	assert.Equal(t, 2, snapshot.ActiveSessionCount)
	assert.Equal(t, 20, snapshot.OccupancyRate)
}

func TestAggregate_MonthToDate(t *testing.T) {
	t.Run("shift by bar count", func(t *testing.T) {
		snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sampleSessions(t), PeriodMonthToDate)
		require.NoError(t, err)

		require.Len(t, snapshot.DailyBars, 15)
		assert.Equal(t, "2024-03-01", snapshot.DailyBars[0].Day.String())
		assert.Equal(t, "1", snapshot.DailyBars[0].Label)
		assert.Equal(t, "6", snapshot.DailyBars[5].Label)
		assert.Equal(t, "", snapshot.DailyBars[6].Label)
		assert.Equal(t, "240", snapshot.TotalRevenue.String())
		// Mar 3 minus 15 days is Feb 17: nothing there.
		assert.True(t, snapshot.DailyBars[2].PreviousRevenue.IsZero())
	})

	t.Run("prior calendar month", func(t *testing.T) {
		sessions := append(sampleSessions(t),
			exitedSession(t, "FEB", at(2024, time.February, 3, 9, 0), at(2024, time.February, 3, 10, 0), 20))

		snapshot, err := newTestAggregator(ComparePriorMonth).Aggregate(sessions, PeriodMonthToDate)
		require.NoError(t, err)

		assert.Equal(t, "20", snapshot.DailyBars[2].PreviousRevenue.String())
	})
}

func TestAggregate_LocalDayBucketing(t *testing.T) {
	// 01:30 IST on the 11th is still the 10th in UTC.
	sessions := []Session{
		exitedSession(t, "EARLY", at(2024, time.March, 10, 22, 0), at(2024, time.March, 11, 1, 30), 20),
	}

	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sessions, PeriodSevenDay)
	require.NoError(t, err)

	assert.True(t, snapshot.DailyBars[1].CurrentRevenue.IsZero())
	assert.Equal(t, "60", snapshot.DailyBars[2].CurrentRevenue.String())
}

func TestAggregate_EntryAfterTodayIsOutsideWindow(t *testing.T) {
	sessions := []Session{
		parkedSession("LASTSECOND", at(2024, time.March, 15, 23, 59), 20),
		parkedSession("TOMORROW", at(2024, time.March, 16, 0, 0), 20),
	}

	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(sessions, PeriodSevenDay)
	require.NoError(t, err)

	require.Len(t, snapshot.SessionsInWindow, 1)
	assert.Equal(t, "LASTSECOND", snapshot.SessionsInWindow[0].Plate)
	assert.Equal(t, 2, snapshot.ActiveSessionCount)
	assert.Equal(t, 100, snapshot.OccupancyRate)
}

func TestAggregate_Empty(t *testing.T) {
	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate(nil, PeriodSevenDay)
	require.NoError(t, err)

	assert.True(t, snapshot.TotalRevenue.IsZero())
	assert.Equal(t, 0, snapshot.OccupancyRate)
	assert.Equal(t, 0, snapshot.ActiveSessionCount)
	assert.Zero(t, snapshot.AvgTurnoverHours)
	require.Len(t, snapshot.DurationBuckets, 3)
	for _, bucket := range snapshot.DurationBuckets {
		assert.Equal(t, 0, bucket.Percentage)
	}
}

func TestAggregate_FlaggedSessionsAreNotBilled(t *testing.T) {
	exit := at(2024, time.March, 14, 8, 0)
	flagged := Session{
		Plate:   "SKEW",
		Entry:   at(2024, time.March, 14, 9, 0),
		Exit:    &exit,
		Status:  StatusExited,
		Flagged: true,
	}

	snapshot, err := newTestAggregator(CompareShiftDays).Aggregate([]Session{flagged}, PeriodSevenDay)
	require.NoError(t, err)

	assert.True(t, snapshot.TotalRevenue.IsZero())
	assert.Zero(t, snapshot.AvgTurnoverHours)
	assert.Equal(t, 0, snapshot.OccupancyRate)
}

func TestAggregate_UnknownPeriod(t *testing.T) {
	_, err := newTestAggregator(CompareShiftDays).Aggregate(nil, Period("fortnight"))
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestParsePeriod(t *testing.T) {
	cases := map[string]Period{
		"7d":           PeriodSevenDay,
		"Last 7 Days":  PeriodSevenDay,
		"30D":          PeriodThirtyDay,
		"Last 30 Days": PeriodThirtyDay,
		"mtd":          PeriodMonthToDate,
		"Monthly View": PeriodMonthToDate,
	}
	for raw, want := range cases {
		got, err := ParsePeriod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParsePeriod("quarter")
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestParseComparisonPolicy(t *testing.T) {
	policy, err := ParseComparisonPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CompareShiftDays, policy)

	policy, err = ParseComparisonPolicy("PRIOR_MONTH")
	require.NoError(t, err)
	assert.Equal(t, ComparePriorMonth, policy)

	_, err = ParseComparisonPolicy("yoy")
	assert.ErrorIs(t, err, ErrUnknownComparison)
}

func TestWindow_PreviousDay(t *testing.T) {
	t.Run("prior month clamps to the last day", func(t *testing.T) {
		w, err := NewWindow(PeriodMonthToDate, Day{Year: 2024, Month: time.March, Day: 31}, ist)
		require.NoError(t, err)
		require.Equal(t, 31, w.Len())

		assert.Equal(t, "2024-02-29", w.PreviousDay(30, ComparePriorMonth).String())
		assert.Equal(t, "2024-02-01", w.PreviousDay(0, ComparePriorMonth).String())
		assert.Equal(t, "2024-01-30", w.PreviousDay(0, CompareShiftDays).String())
	})

	t.Run("january compares with december", func(t *testing.T) {
		w, err := NewWindow(PeriodMonthToDate, Day{Year: 2024, Month: time.January, Day: 5}, ist)
		require.NoError(t, err)

		assert.Equal(t, "2023-12-05", w.PreviousDay(4, ComparePriorMonth).String())
		assert.Equal(t, "2023-12-31", w.PreviousDay(4, CompareShiftDays).String())
	})

	t.Run("seven day shift", func(t *testing.T) {
		w, err := NewWindow(PeriodSevenDay, Day{Year: 2024, Month: time.March, Day: 15}, ist)
		require.NoError(t, err)

		assert.Equal(t, "2024-03-02", w.PreviousDay(0, CompareShiftDays).String())
		assert.Equal(t, "2024-03-08", w.PreviousDay(6, CompareShiftDays).String())
	})
}
