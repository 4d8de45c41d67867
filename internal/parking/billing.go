package parking

import (
	"fmt"
	"time"

	"parking-service/internal/money"
)

// GracePeriodMinutes is the free allowance; stays up to and including it cost nothing.
const GracePeriodMinutes = 30

type Duration struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	TotalMinutes int `json:"total_minutes"`
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}

type Billing struct {
	Duration Duration      `json:"duration"`
	Amount   money.Decimal `json:"amount"`
}

// ComputeBilling prices one stay. The rate is always the one frozen at
// entry; callers must never pass the live rate here.
func ComputeBilling(entry, exit time.Time, rateAtEntry money.Decimal) (Billing, error) {
	if exit.Before(entry) {
		return Billing{}, fmt.Errorf("%w: exit %s precedes entry %s",
			ErrNegativeDuration, exit.Format(time.RFC3339), entry.Format(time.RFC3339))
	}

	total := int(exit.Sub(entry) / time.Minute)
	return Billing{
		Duration: Duration{
			Hours:        total / 60,
			Minutes:      total % 60,
			TotalMinutes: total,
		},
		Amount: Charge(total, rateAtEntry),
	}, nil
}

// Charge bills every started hour beyond the grace period at rate.
func Charge(totalMinutes int, rate money.Decimal) money.Decimal {
	if totalMinutes <= GracePeriodMinutes {
		return money.Decimal{}
	}
	chargeable := totalMinutes - GracePeriodMinutes
	hours := (chargeable + 59) / 60
	return rate.MulInt(int64(hours))
}
