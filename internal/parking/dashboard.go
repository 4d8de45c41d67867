package parking

import (
	"strings"
	"time"

	"parking-service/internal/money"
)

// Filter narrows the record table. Zero values disable each criterion.
type Filter struct {
	Date   *Day
	Search string
	Status Status
}

type DashboardView struct {
	Sessions []Session    `json:"sessions"`
	Total    int           `json:"total"`
	Parked   int           `json:"parked"`
	Exited   int           `json:"exited"`
	Revenue  money.Decimal `json:"revenue"`
}

// Summarize applies filter to sessions and counts what remains. Revenue is
// collected from sessions that exited on the filter date; without a date it
// is today's revenue over the unfiltered data.
func Summarize(sessions []Session, filter Filter, today Day, loc *time.Location) DashboardView {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	visible := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if filter.Date != nil && !touchesDay(s, *filter.Date, loc) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Plate), search) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		visible = append(visible, s)
	}

	view := DashboardView{Sessions: visible, Total: len(visible)}
	for _, s := range visible {
		switch s.Status {
		case StatusParked:
			view.Parked++
		case StatusExited:
			view.Exited++
		}
	}

	if filter.Date != nil {
		view.Revenue = revenueOn(visible, *filter.Date, loc)
	} else {
		view.Revenue = revenueOn(sessions, today, loc)
	}
	return view
}

func touchesDay(s Session, day Day, loc *time.Location) bool {
	if LocalDay(s.Entry, loc) == day {
		return true
	}
	return s.Exit != nil && LocalDay(*s.Exit, loc) == day
}

func revenueOn(sessions []Session, day Day, loc *time.Location) money.Decimal {
	var total money.Decimal
	for _, s := range sessions {
		if s.Exit == nil || s.Amount == nil {
			continue
		}
		if LocalDay(*s.Exit, loc) == day {
			total = total.Add(*s.Amount)
		}
	}
	return total
}
