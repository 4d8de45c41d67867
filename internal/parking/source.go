package parking

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"parking-service/internal/money"
)

// RawEvent is one scan exactly as the event source supplied it. Plate and
// timestamp are unvalidated; the reconciler cleans them.
type RawEvent struct {
	ID          string
	Plate       string
	Timestamp   string
	VehicleType string
	// RateAtEntry is set when the producer already froze a rate for the
	// session this scan may open (manual entries, live ingest).
	RateAtEntry *money.Decimal
}

// Field aliases seen in gate-sensor and operator records, in priority order.
var (
	plateFields     = []string{"number_plate", "numberPlate", "plate"}
	timestampFields = []string{"date_time", "dateTime", "timestamp", "time"}
	rateFields      = []string{"rate_at_entry", "rateAtEntry"}
	typeFields      = []string{"vehicle_type", "vehicleType", "type"}
)

// DecodeSourceRecord resolves the known record shapes into a RawEvent.
// Missing or garbled fields are left empty rather than reported.
func DecodeSourceRecord(id string, record map[string]interface{}) RawEvent {
	event := RawEvent{
		ID:          id,
		Plate:       firstString(record, plateFields),
		Timestamp:   firstTimestamp(record, timestampFields),
		VehicleType: firstString(record, typeFields),
	}
	if rate, ok := firstRate(record, rateFields); ok {
		event.RateAtEntry = &rate
	}
	return event
}

func firstString(record map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s := stringValue(record[key]); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// Numeric timestamps are epoch milliseconds.
func firstTimestamp(record map[string]interface{}, keys []string) string {
	for _, key := range keys {
		switch val := record[key].(type) {
		case string:
			if strings.TrimSpace(val) != "" {
				return val
			}
		case float64:
			if val > 0 {
				return epochMillis(int64(val))
			}
		case int64:
			if val > 0 {
				return epochMillis(val)
			}
		case int:
			if val > 0 {
				return epochMillis(int64(val))
			}
		case json.Number:
			if ms, err := val.Int64(); err == nil && ms > 0 {
				return epochMillis(ms)
			}
		}
	}
	return ""
}

func epochMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
}

// A zero or negative rate counts as absent.
func firstRate(record map[string]interface{}, keys []string) (money.Decimal, bool) {
	for _, key := range keys {
		raw := stringValue(record[key])
		if raw == "" {
			continue
		}
		rate, err := money.NewDecimal(strings.TrimSpace(raw))
		if err != nil || rate.Sign() <= 0 {
			continue
		}
		return rate, true
	}
	return money.Decimal{}, false
}

// String is used in log lines.
func (e RawEvent) String() string {
	return fmt.Sprintf("%s@%s", e.Plate, e.Timestamp)
}
