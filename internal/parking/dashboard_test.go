package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func dashboardSessions(t *testing.T) []Session {
	return []Session{
		exitedSession(t, "TS01AB1234", at(2024, time.March, 14, 9, 0), at(2024, time.March, 14, 11, 5), 20),
		// Overnight: entered the 14th, left the 15th.
		exitedSession(t, "KA05MN0001", at(2024, time.March, 14, 22, 0), at(2024, time.March, 15, 1, 0), 20),
		parkedSession("TS09ZZ0042", at(2024, time.March, 15, 8, 0), 20),
		exitedSession(t, "MH12DE1433", at(2024, time.March, 15, 7, 0), at(2024, time.March, 15, 7, 20), 20),
	}
}

func TestSummarize_NoFilter(t *testing.T) {
	today := Day{Year: 2024, Month: time.March, Day: 15}

	view := Summarize(dashboardSessions(t), Filter{}, today, ist)

	assert.Equal(t, 4, view.Total)
	assert.Equal(t, 1, view.Parked)
	assert.Equal(t, 3, view.Exited)
	// Overnight exit (60) plus the free stay (0).
	assert.Equal(t, "60", view.Revenue.String())
}

func TestSummarize_DateMatchesEntryOrExit(t *testing.T) {
	day := Day{Year: 2024, Month: time.March, Day: 14}
	today := Day{Year: 2024, Month: time.March, Day: 15}

	view := Summarize(dashboardSessions(t), Filter{Date: &day}, today, ist)

	assert.Equal(t, []string{"TS01AB1234", "KA05MN0001"}, plates(view.Sessions))
	// Only the same-day exit counts towards the 14th.
	assert.Equal(t, "40", view.Revenue.String())
}

func TestSummarize_SearchIsCaseInsensitive(t *testing.T) {
	today := Day{Year: 2024, Month: time.March, Day: 15}

	view := Summarize(dashboardSessions(t), Filter{Search: " ts0"}, today, ist)

	assert.Equal(t, []string{"TS01AB1234", "TS09ZZ0042"}, plates(view.Sessions))
	assert.Equal(t, 1, view.Parked)
	assert.Equal(t, 1, view.Exited)
}

func TestSummarize_StatusFilter(t *testing.T) {
	today := Day{Year: 2024, Month: time.March, Day: 15}

	view := Summarize(dashboardSessions(t), Filter{Status: StatusParked}, today, ist)

	assert.Equal(t, []string{"TS09ZZ0042"}, plates(view.Sessions))
	assert.Equal(t, 0, view.Exited)
	// Without a date filter revenue still covers all of today's exits.
	assert.Equal(t, "60", view.Revenue.String())
}

func TestSummarize_Empty(t *testing.T) {
	view := Summarize(nil, Filter{}, Day{Year: 2024, Month: time.March, Day: 15}, ist)

	assert.NotNil(t, view.Sessions)
	assert.Equal(t, 0, view.Total)
	assert.True(t, view.Revenue.IsZero())
}

func TestParseStatus(t *testing.T) {
	for raw, want := range map[string]Status{"": "", "all": "", "Parked": StatusParked, "EXITED": StatusExited} {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseStatus("towed")
	assert.False(t, ok)
}
