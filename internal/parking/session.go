package parking

import (
	"strings"
	"time"

	"parking-service/internal/money"
)

type Status string

const (
	StatusParked Status = "Parked"
	StatusExited Status = "Exited"
)

// ParseStatus accepts "parked"/"exited" in any case. "all" and the empty
// string mean no status filter and yield "".
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", true
	case "parked":
		return StatusParked, true
	case "exited":
		return StatusExited, true
	default:
		return "", false
	}
}

// Session is one reconciled stay. It is identified by (Plate, Entry) and is
// never modified once it has been emitted.
type Session struct {
	Plate       string         `json:"plate"`
	VehicleType string         `json:"vehicle_type,omitempty"`
	Entry       time.Time      `json:"entry"`
	Exit        *time.Time     `json:"exit"`
	Status      Status         `json:"status"`
	RateAtEntry money.Decimal  `json:"rate_at_entry"`
	Duration    *Duration      `json:"duration"`
	Amount      *money.Decimal `json:"amount"`
	// Flagged marks an exit that could not be billed (see WarningNegativeDuration).
	Flagged bool `json:"flagged,omitempty"`
}

func (s Session) IsParked() bool {
	return s.Status == StatusParked
}

// Rebill prices the session again from its frozen entry rate.
func (s Session) Rebill() (Billing, error) {
	if s.Exit == nil {
		return Billing{}, ErrSessionOpen
	}
	return ComputeBilling(s.Entry, *s.Exit, s.RateAtEntry)
}

// NewestFirst returns a reversed copy of chronologically ordered sessions,
// the order record tables and exports display.
func NewestFirst(sessions []Session) []Session {
	out := make([]Session, len(sessions))
	for i, s := range sessions {
		out[len(sessions)-1-i] = s
	}
	return out
}
