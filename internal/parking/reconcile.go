package parking

import (
	"sort"
	"strconv"
	"time"

	"parking-service/internal/money"
	"parking-service/internal/utils"
)

type DiscardCounts struct {
	InvalidPlate       int `json:"invalid_plate"`
	MalformedTimestamp int `json:"malformed_timestamp"`
}

// Result is the outcome of one reconciliation. Sessions are in
// chronological order of entry; use NewestFirst for display order.
type Result struct {
	Sessions  []Session     `json:"sessions"`
	Warnings  []Warning     `json:"warnings"`
	Discarded DiscardCounts `json:"discarded"`
}

// Reconciler pairs scans into sessions. It holds no state between calls.
type Reconciler struct {
	rates RateProvider
	loc   *time.Location
}

func NewReconciler(rates RateProvider, loc *time.Location) *Reconciler {
	if rates == nil {
		rates = DefaultRates()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Reconciler{rates: rates, loc: loc}
}

type scan struct {
	id          string
	plate       string
	vehicleType string
	at          time.Time
	rate        *money.Decimal
}

// Reconcile turns an unordered list of raw scans into sessions. Per plate,
// scans alternate between opening and closing a session: two scans make one
// closed session, a third opens a new one. A lone scan is a session that is
// still parked.
func (r *Reconciler) Reconcile(events []RawEvent) Result {
	scans, result := r.normalize(events)

	// Ties keep arrival order.
	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].at.Before(scans[j].at)
	})

	l := newLedger()
	for _, sc := range scans {
		l = l.apply(sc, r.rates)
	}

	result.Sessions = l.sessions()
	result.Warnings = append(result.Warnings, l.warnings...)
	return result
}

func (r *Reconciler) normalize(events []RawEvent) ([]scan, Result) {
	result := Result{Warnings: []Warning{}}
	scans := make([]scan, 0, len(events))

	for _, ev := range events {
		plate := utils.NormalizePlate(ev.Plate)
		if plate == "" {
			result.Discarded.InvalidPlate++
			continue
		}

		at, ok := ParseTimestamp(ev.Timestamp, r.loc)
		if !ok {
			result.Discarded.MalformedTimestamp++
			result.Warnings = append(result.Warnings, Warning{
				Kind:    WarningMalformedTimestamp,
				EventID: ev.ID,
				Plate:   plate,
				Detail:  "unrecognised timestamp " + strconv.Quote(ev.Timestamp),
			})
			continue
		}

		scans = append(scans, scan{
			id:          ev.ID,
			plate:       plate,
			vehicleType: ev.VehicleType,
			at:          at,
			rate:        ev.RateAtEntry,
		})
	}

	return scans, result
}

// ledger is the fold accumulator: sessions already closed and, per plate,
// the session currently open. Each step yields a new ledger.
type ledger struct {
	next     int
	closed   []ordered
	open     map[string]ordered
	warnings []Warning
}

// ordered remembers the position of the opening scan so the final output
// can be put back into entry order.
type ordered struct {
	pos     int
	session Session
}

func newLedger() ledger {
	return ledger{open: make(map[string]ordered)}
}

// apply returns the ledger after sc. The receiver is left as it was: the
// open map is copied and the slices are only appended to.
func (l ledger) apply(sc scan, rates RateProvider) ledger {
	open := make(map[string]ordered, len(l.open)+1)
	for plate, o := range l.open {
		open[plate] = o
	}
	l.open = open

	current, isOpen := l.open[sc.plate]
	if !isOpen {
		l.open[sc.plate] = ordered{pos: l.next, session: openSession(sc, rates)}
		l.next++
		return l
	}

	delete(l.open, sc.plate)
	closed, warning := closeSession(current.session, sc)
	if warning != nil {
		l.warnings = append(l.warnings, *warning)
	}
	l.closed = append(l.closed, ordered{pos: current.pos, session: closed})
	return l
}

func (l ledger) sessions() []Session {
	all := make([]ordered, 0, len(l.closed)+len(l.open))
	all = append(all, l.closed...)
	for _, o := range l.open {
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].pos < all[j].pos })

	out := make([]Session, len(all))
	for i, o := range all {
		out[i] = o.session
	}
	return out
}

func openSession(sc scan, rates RateProvider) Session {
	var rate money.Decimal
	if sc.rate != nil {
		rate = *sc.rate
	} else {
		rate = rates.RateFor(sc.vehicleType)
	}
	return Session{
		Plate:       sc.plate,
		VehicleType: sc.vehicleType,
		Entry:       sc.at,
		Status:      StatusParked,
		RateAtEntry: rate,
	}
}

func closeSession(s Session, sc scan) (Session, *Warning) {
	exit := sc.at
	s.Exit = &exit
	s.Status = StatusExited

	billing, err := ComputeBilling(s.Entry, exit, s.RateAtEntry)
	if err != nil {
		s.Flagged = true
		return s, &Warning{
			Kind:    WarningNegativeDuration,
			EventID: sc.id,
			Plate:   s.Plate,
			Detail:  err.Error(),
		}
	}

	duration := billing.Duration
	amount := billing.Amount
	s.Duration = &duration
	s.Amount = &amount
	return s, nil
}
