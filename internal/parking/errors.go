package parking

import "errors"

var (
	ErrNegativeDuration      = errors.New("negative duration")
	ErrUnknownPeriod         = errors.New("unknown period")
	ErrUnknownComparison     = errors.New("unknown comparison policy")
	ErrSessionOpen           = errors.New("session is still open")
	ErrRateSourceUnavailable = errors.New("rate source unavailable")
)

type WarningKind string

const (
	WarningMalformedTimestamp WarningKind = "MALFORMED_TIMESTAMP"
	WarningNegativeDuration   WarningKind = "NEGATIVE_DURATION"
)

// Warning describes a data-quality problem found while reconciling. Warnings
// never abort reconciliation.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	EventID string      `json:"event_id,omitempty"`
	Plate   string      `json:"plate,omitempty"`
	Detail  string      `json:"detail"`
}
