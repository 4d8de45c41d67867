package parking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Period string

const (
	PeriodSevenDay    Period = "7d"
	PeriodThirtyDay   Period = "30d"
	PeriodMonthToDate Period = "mtd"
)

// ParsePeriod accepts the short codes as well as the dashboard labels.
func ParsePeriod(raw string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "7d", "last 7 days", "seven_day", "week":
		return PeriodSevenDay, nil
	case "30d", "last 30 days", "thirty_day":
		return PeriodThirtyDay, nil
	case "mtd", "monthly view", "month_to_date", "month":
		return PeriodMonthToDate, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, raw)
	}
}

func (p Period) Valid() bool {
	switch p {
	case PeriodSevenDay, PeriodThirtyDay, PeriodMonthToDate:
		return true
	}
	return false
}

// ComparisonPolicy decides which day each bar is compared against.
type ComparisonPolicy string

const (
	// CompareShiftDays compares each bar with the day N bars earlier, i.e. the
	// immediately preceding window of equal length.
	CompareShiftDays ComparisonPolicy = "shift_days"
	// ComparePriorMonth compares each bar with the same day-of-month in the
	// previous calendar month, clamped to that month's last day.
	ComparePriorMonth ComparisonPolicy = "prior_month"
)

func ParseComparisonPolicy(raw string) (ComparisonPolicy, error) {
	switch ComparisonPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", CompareShiftDays:
		return CompareShiftDays, nil
	case ComparePriorMonth:
		return ComparePriorMonth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownComparison, raw)
	}
}

// Window is the set of local calendar days a period covers, oldest first,
// ending with today.
type Window struct {
	Period Period
	Days   []Day
	Start  time.Time
	End    time.Time
}

func NewWindow(period Period, today Day, loc *time.Location) (Window, error) {
	var first Day
	switch period {
	case PeriodSevenDay:
		first = today.AddDays(-6)
	case PeriodThirtyDay:
		first = today.AddDays(-29)
	case PeriodMonthToDate:
		first = Day{Year: today.Year, Month: today.Month, Day: 1}
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, string(period))
	}

	var days []Day
	for d := first; !today.Before(d); d = d.AddDays(1) {
		days = append(days, d)
	}

	return Window{
		Period: period,
		Days:   days,
		Start:  first.Start(loc),
		End:    today.End(loc),
	}, nil
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) Len() int {
	return len(w.Days)
}

// PreviousDay is the comparison day for bar i.
func (w Window) PreviousDay(i int, policy ComparisonPolicy) Day {
	day := w.Days[i]
	if policy == ComparePriorMonth {
		year, month := day.Year, day.Month-1
		if month < time.January {
			year, month = year-1, time.December
		}
		d := day.Day
		if last := daysIn(year, month); d > last {
			d = last
		}
		return Day{Year: year, Month: month, Day: d}
	}
	return day.AddDays(-w.Len())
}

var weekdayLabels = [...]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// Label is the short axis label for bar i. Long windows only label every
// fifth bar.
func (w Window) Label(i int) string {
	switch w.Period {
	case PeriodSevenDay:
		return weekdayLabels[w.Days[i].Weekday()]
	case PeriodThirtyDay:
		if i%5 == 0 {
			return strconv.Itoa(w.Days[i].Day)
		}
	case PeriodMonthToDate:
		if i%5 == 0 {
			return strconv.Itoa(i + 1)
		}
	}
	return ""
}

// Describe renders the window as "first → last" using local dates.
func (w Window) Describe() string {
	if len(w.Days) == 0 {
		return ""
	}
	return w.Days[0].String() + " → " + w.Days[len(w.Days)-1].String()
}
