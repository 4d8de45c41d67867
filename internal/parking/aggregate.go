package parking

import (
	"math"
	"time"

	"parking-service/internal/money"
)

// Stay-length bucket boundaries in minutes.
const (
	shortStayLimit  = 120
	mediumStayLimit = 360
)

type Clock interface {
	Now() time.Time
}

type DailyBar struct {
	Day             Day           `json:"day"`
	Label           string        `json:"label"`
	CurrentRevenue  money.Decimal `json:"current_revenue"`
	PreviousRevenue money.Decimal `json:"previous_revenue"`
}

type DurationBucket struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Snapshot is the analytics view of one data set over one period.
type Snapshot struct {
	Period      Period    `json:"period"`
	PeriodLabel string    `json:"period_label"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TotalRevenue money.Decimal `json:"total_revenue"`
	// OccupancyRate is the share, in percent, of sessions entering inside the
	// window that are still parked.
	OccupancyRate int `json:"occupancy_rate"`
	// ActiveSessionCount covers the whole data set: a parked vehicle has no
	// exit to place it in any window.
	ActiveSessionCount int     `json:"active_session_count"`
	AvgTurnoverHours   float64 `json:"avg_turnover_hours"`

	DailyBars       []DailyBar       `json:"daily_bars"`
	DurationBuckets []DurationBucket `json:"duration_buckets"`

	// SessionsInWindow are the sessions whose entry lies in the window.
	SessionsInWindow []Session `json:"-"`
}

type Aggregator struct {
	clock      Clock
	loc        *time.Location
	comparison ComparisonPolicy
}

func NewAggregator(clock Clock, loc *time.Location, comparison ComparisonPolicy) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if comparison == "" {
		comparison = CompareShiftDays
	}
	return &Aggregator{clock: clock, loc: loc, comparison: comparison}
}

func (a *Aggregator) Today() Day {
	return LocalDay(a.clock.Now(), a.loc)
}

// Aggregate computes the snapshot for period as of the aggregator's clock.
// An unknown period is a caller bug and returns ErrUnknownPeriod.
func (a *Aggregator) Aggregate(sessions []Session, period Period) (Snapshot, error) {
	window, err := NewWindow(period, a.Today(), a.loc)
	if err != nil {
		return Snapshot{}, err
	}

	revenue := revenueByExitDay(sessions, a.loc)

	bars := make([]DailyBar, window.Len())
	var total money.Decimal
	for i, day := range window.Days {
		bars[i] = DailyBar{
			Day:             day,
			Label:           window.Label(i),
			CurrentRevenue:  revenue[day],
			PreviousRevenue: revenue[window.PreviousDay(i, a.comparison)],
		}
		total = total.Add(bars[i].CurrentRevenue)
	}

	inWindow := make([]Session, 0)
	active := 0
	for _, s := range sessions {
		if s.IsParked() {
			active++
		}
		if window.Contains(s.Entry) {
			inWindow = append(inWindow, s)
		}
	}

	return Snapshot{
		Period:             period,
		PeriodLabel:        window.Describe(),
		WindowStart:        window.Start,
		WindowEnd:          window.End,
		TotalRevenue:       total,
		OccupancyRate:      occupancyRate(inWindow),
		ActiveSessionCount: active,
		AvgTurnoverHours:   avgTurnoverHours(inWindow),
		DailyBars:          bars,
		DurationBuckets:    durationBuckets(inWindow),
		SessionsInWindow:   inWindow,
	}, nil
}

func revenueByExitDay(sessions []Session, loc *time.Location) map[Day]money.Decimal {
	byDay := make(map[Day]money.Decimal)
	for _, s := range sessions {
		if s.Exit == nil || s.Amount == nil {
			continue
		}
		day := LocalDay(*s.Exit, loc)
		byDay[day] = byDay[day].Add(*s.Amount)
	}
	return byDay
}

func occupancyRate(inWindow []Session) int {
	if len(inWindow) == 0 {
		return 0
	}
	parked := 0
	for _, s := range inWindow {
		if s.IsParked() {
			parked++
		}
	}
	return percent(parked, len(inWindow))
}

// billedStays are exited sessions that carry a duration; flagged exits are skipped.
func billedStays(inWindow []Session) []Duration {
	var out []Duration
	for _, s := range inWindow {
		if s.Status == StatusExited && s.Duration != nil {
			out = append(out, *s.Duration)
		}
	}
	return out
}

func avgTurnoverHours(inWindow []Session) float64 {
	stays := billedStays(inWindow)
	if len(stays) == 0 {
		return 0
	}
	minutes := 0
	for _, d := range stays {
		minutes += d.TotalMinutes
	}
	hours := float64(minutes) / float64(len(stays)) / 60
	return math.Round(hours*10) / 10
}

func durationBuckets(inWindow []Session) []DurationBucket {
	stays := billedStays(inWindow)

	var short, medium, long int
	for _, d := range stays {
		switch {
		case d.TotalMinutes < shortStayLimit:
			short++
		case d.TotalMinutes < mediumStayLimit:
			medium++
		default:
			long++
		}
	}

	denom := len(stays)
	if denom == 0 {
		denom = 1
	}
	return []DurationBucket{
		{Label: "Short Stay (< 2h)", Count: short, Percentage: percent(short, denom)},
		{Label: "Medium Stay (2–6h)", Count: medium, Percentage: percent(medium, denom)},
		{Label: "Long Stay (> 6h)", Count: long, Percentage: percent(long, denom)},
	}
}

func percent(part, whole int) int {
	return int(math.Round(100 * float64(part) / float64(whole)))
}
