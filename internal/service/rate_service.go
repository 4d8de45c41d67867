package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"parking-service/internal/metrics"
	"parking-service/internal/model"
	"parking-service/internal/money"
	"parking-service/internal/parking"
	"parking-service/internal/repository"
)

type RateService struct {
	rateRepo *repository.RateRepository
	defaults parking.RateTable
	metrics  *metrics.Collector
	log      zerolog.Logger
}

func NewRateService(
	rateRepo *repository.RateRepository,
	defaults parking.RateTable,
	collector *metrics.Collector,
	log zerolog.Logger,
) *RateService {
	return &RateService{
		rateRepo: rateRepo,
		defaults: defaults.WithFallback(parking.DefaultRates()),
		metrics:  collector,
		log:      log,
	}
}

// Current returns the rate table in force. It never fails: when the store
// cannot be read the configured defaults are returned and the failure is
// logged and counted.
func (s *RateService) Current(ctx context.Context) parking.RateTable {
	settings, err := s.rateRepo.Latest(ctx)
	if err != nil {
		s.log.Error().Err(parking.ErrRateSourceUnavailable).AnErr("cause", err).Msg("using default rates")
		s.metrics.RateFallback()
		return s.defaults
	}
	if settings == nil {
		return s.defaults
	}

	table := parking.RateTable{
		Car:       settings.Car,
		Bike:      settings.Bike,
		Truck:     settings.Truck,
		UpdatedAt: settings.CreatedAt,
	}
	return table.WithFallback(s.defaults)
}

type UpdateRatesInput struct {
	Car   *money.Decimal
	Bike  *money.Decimal
	Truck *money.Decimal
}

// Update stores a new revision. Omitted categories keep their current rate.
// Sessions that are already open keep the rate they were stamped with.
func (s *RateService) Update(ctx context.Context, input UpdateRatesInput) (parking.RateTable, error) {
	if input.Car == nil && input.Bike == nil && input.Truck == nil {
		return parking.RateTable{}, fmt.Errorf("%w: no rates given", ErrInvalidInput)
	}

	next := s.Current(ctx)
	if input.Car != nil {
		next.Car = *input.Car
	}
	if input.Bike != nil {
		next.Bike = *input.Bike
	}
	if input.Truck != nil {
		next.Truck = *input.Truck
	}
	if err := next.Validate(); err != nil {
		return parking.RateTable{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	settings := &model.RateSettings{Car: next.Car, Bike: next.Bike, Truck: next.Truck}
	if err := s.rateRepo.Create(ctx, settings); err != nil {
		return parking.RateTable{}, err
	}
	next.UpdatedAt = settings.CreatedAt

	s.log.Info().
		Str("car", next.Car.String()).
		Str("bike", next.Bike.String()).
		Str("truck", next.Truck.String()).
		Msg("rates updated")

	return next, nil
}
