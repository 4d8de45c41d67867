package parking

import (
	"fmt"
	"strings"
	"time"

	"parking-service/internal/money"
)

type VehicleCategory string

const (
	CategoryCar   VehicleCategory = "car"
	CategoryBike  VehicleCategory = "bike"
	CategoryTruck VehicleCategory = "truck"
)

// Category maps a free-form vehicle type onto a billing category. Anything
// unrecognised, including an empty type, bills as a car.
func Category(vehicleType string) VehicleCategory {
	t := strings.ToLower(strings.TrimSpace(vehicleType))
	switch {
	case strings.Contains(t, "bike"), strings.Contains(t, "motorcycle"), strings.Contains(t, "two"):
		return CategoryBike
	case strings.Contains(t, "truck"), strings.Contains(t, "heavy"):
		return CategoryTruck
	default:
		return CategoryCar
	}
}

// RateProvider answers the hourly rate in force right now. It has no notion
// of history: freezing a rate onto a session happens once, at entry.
type RateProvider interface {
	RateFor(vehicleType string) money.Decimal
}

// RateFunc adapts a plain function to RateProvider.
type RateFunc func(vehicleType string) money.Decimal

func (f RateFunc) RateFor(vehicleType string) money.Decimal {
	return f(vehicleType)
}

// RateTable is a snapshot of the configured hourly rates.
type RateTable struct {
	Car       money.Decimal `json:"car"`
	Bike      money.Decimal `json:"bike"`
	Truck     money.Decimal `json:"truck"`
	UpdatedAt time.Time     `json:"last_updated"`
}

// DefaultRates is the built-in table used whenever the rate source is
// unavailable.
func DefaultRates() RateTable {
	return RateTable{
		Car:   money.NewDecimalFromInt64(20),
		Bike:  money.NewDecimalFromInt64(10),
		Truck: money.NewDecimalFromInt64(50),
	}
}

func (r RateTable) RateFor(vehicleType string) money.Decimal {
	defaults := DefaultRates()
	switch Category(vehicleType) {
	case CategoryBike:
		return orDefault(r.Bike, defaults.Bike)
	case CategoryTruck:
		return orDefault(r.Truck, defaults.Truck)
	default:
		return orDefault(r.Car, defaults.Car)
	}
}

func (r RateTable) Validate() error {
	for name, rate := range map[string]money.Decimal{"car": r.Car, "bike": r.Bike, "truck": r.Truck} {
		if rate.Sign() <= 0 {
			return fmt.Errorf("%s rate must be positive, got %s", name, rate)
		}
	}
	return nil
}

// WithFallback fills unset categories from fallback.
func (r RateTable) WithFallback(fallback RateTable) RateTable {
	r.Car = orDefault(r.Car, fallback.Car)
	r.Bike = orDefault(r.Bike, fallback.Bike)
	r.Truck = orDefault(r.Truck, fallback.Truck)
	return r
}

func orDefault(rate, fallback money.Decimal) money.Decimal {
	if rate.Sign() <= 0 {
		return fallback
	}
	return rate
}
