package parking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"parking-service/internal/money"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, ist)
}

func rate(v int64) money.Decimal {
	return money.NewDecimalFromInt64(v)
}

func exitedSession(t *testing.T, plate string, entry, exit time.Time, rateAtEntry int64) Session {
	t.Helper()
	billing, err := ComputeBilling(entry, exit, rate(rateAtEntry))
	require.NoError(t, err)
	duration := billing.Duration
	amount := billing.Amount
	return Session{
		Plate:       plate,
		Entry:       entry,
		Exit:        &exit,
		Status:      StatusExited,
		RateAtEntry: rate(rateAtEntry),
		Duration:    &duration,
		Amount:      &amount,
	}
}

func parkedSession(plate string, entry time.Time, rateAtEntry int64) Session {
	return Session{
		Plate:       plate,
		Entry:       entry,
		Status:      StatusParked,
		RateAtEntry: rate(rateAtEntry),
	}
}
