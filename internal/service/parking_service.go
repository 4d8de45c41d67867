package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"parking-service/internal/client"
	"parking-service/internal/metrics"
	"parking-service/internal/model"
	"parking-service/internal/money"
	"parking-service/internal/parking"
	"parking-service/internal/repository"
	"parking-service/internal/utils"
)

type ParkingOptions struct {
	Clock      parking.Clock
	Location   *time.Location
	Comparison parking.ComparisonPolicy
	Source     *client.SourceClient
}

type ParkingService struct {
	scanRepo    *repository.ScanEventRepository
	rateService *RateService
	source      *client.SourceClient
	clock       parking.Clock
	loc         *time.Location
	aggregator  *parking.Aggregator
	metrics     *metrics.Collector
	log         zerolog.Logger
}

func NewParkingService(
	scanRepo *repository.ScanEventRepository,
	rateService *RateService,
	collector *metrics.Collector,
	log zerolog.Logger,
	opts ParkingOptions,
) *ParkingService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ParkingService{
		scanRepo:    scanRepo,
		rateService: rateService,
		source:      opts.Source,
		clock:       opts.Clock,
		loc:         opts.Location,
		aggregator:  parking.NewAggregator(opts.Clock, opts.Location, opts.Comparison),
		metrics:     collector,
		log:         log,
	}
}

type ScanInput struct {
	Plate       string
	Timestamp   string
	VehicleType string
	Zone        string
}

// RecordScan stores a sensor sighting. A missing timestamp means "now". The
// rate in force at this moment is stamped onto the event so that, if the
// scan opens a session, later rate changes never reach it.
func (s *ParkingService) RecordScan(ctx context.Context, input ScanInput) (*model.ScanEvent, error) {
	return s.record(ctx, model.ScanSourceSensor, input)
}

type ManualEntryInput struct {
	Plate       string
	VehicleType string
	Zone        string
}

// ManualEntry registers a vehicle by hand while sensors are offline. The
// entry time is the current time.
func (s *ParkingService) ManualEntry(ctx context.Context, input ManualEntryInput) (*model.ScanEvent, error) {
	if strings.TrimSpace(input.VehicleType) == "" {
		return nil, fmt.Errorf("%w: vehicle type is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Zone) == "" {
		return nil, fmt.Errorf("%w: zone is required", ErrInvalidInput)
	}
	return s.record(ctx, model.ScanSourceManual, ScanInput{
		Plate:       input.Plate,
		VehicleType: input.VehicleType,
		Zone:        input.Zone,
	})
}

func (s *ParkingService) record(ctx context.Context, source model.ScanSource, input ScanInput) (*model.ScanEvent, error) {
	plate := utils.NormalizePlate(input.Plate)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate is required", ErrInvalidInput)
	}

	timestamp := strings.TrimSpace(input.Timestamp)
	if timestamp == "" {
		timestamp = s.clock.Now().In(s.loc).Format(time.RFC3339Nano)
	} else if _, ok := parking.ParseTimestamp(timestamp, s.loc); !ok {
		return nil, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidInput, timestamp)
	}

	vehicleType := strings.TrimSpace(input.VehicleType)
	rate := s.rateService.Current(ctx).RateFor(vehicleType)

	event := &model.ScanEvent{
		Plate:       plate,
		RawPlate:    input.Plate,
		Timestamp:   timestamp,
		VehicleType: vehicleType,
		RateAtEntry: &rate,
		Source:      source,
		Zone:        strings.TrimSpace(input.Zone),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.scanRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.metrics.ScansIngested(string(source), 1)
	s.log.Debug().
		Str("plate", plate).
		Str("source", string(source)).
		Str("rate", rate.String()).
		Msg("scan recorded")

	return event, nil
}

type ImportResult struct {
	Imported  int   `json:"imported"`
	Skipped   int   `json:"skipped"`
	Malformed int   `json:"malformed"`
	Stored    int64 `json:"stored,omitempty"`
}

// Import stores a batch of upstream records as they are. Nothing is
// rejected here: unreadable plates and timestamps are reported when the
// sessions are reconciled. Records without a rate are stamped with the
// current one. Keyed records already stored, or repeated in the
// batch, are skipped.
func (s *ParkingService) Import(ctx context.Context, records []client.SourceRecord) (*ImportResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidInput)
	}
	return s.store(ctx, records)
}

// SyncFromSource pulls the upstream node and stores the records not seen
// before.
func (s *ParkingService) SyncFromSource(ctx context.Context) (*ImportResult, error) {
	if !s.source.Configured() {
		return nil, fmt.Errorf("%w: source sync is not configured", ErrInvalidInput)
	}

	records, err := s.source.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch source records: %w", err)
	}

	result, err := s.store(ctx, records)
	if err != nil {
		return nil, err
	}

	stored, err := s.scanRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	result.Stored = stored

	s.log.Info().
		Int("fetched", len(records)).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int64("stored", stored).
		Msg("source sync finished")
	return result, nil
}

func (s *ParkingService) store(ctx context.Context, records []client.SourceRecord) (*ImportResult, error) {
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Key != "" {
			keys = append(keys, rec.Key)
		}
	}
	seen, err := s.scanRepo.ExistingSourceKeys(ctx, keys)
	if err != nil {
		return nil, err
	}

	// Records without a rate of their own get the rate in force on arrival.
	rates := s.rateService.Current(ctx)
	receivedAt := s.clock.Now()
	events := make([]model.ScanEvent, 0, len(records))
	skipped, malformed := 0, 0
	for _, rec := range records {
		if rec.Fields == nil {
			malformed++
			continue
		}

		var sourceKey *string
		if rec.Key != "" {
			if _, dup := seen[rec.Key]; dup {
				skipped++
				continue
			}
			seen[rec.Key] = struct{}{}
			key := rec.Key
			sourceKey = &key
		}

		id := uuid.New()
		raw := parking.DecodeSourceRecord(id.String(), rec.Fields)
		if raw.RateAtEntry == nil {
			rate := rates.RateFor(raw.VehicleType)
			raw.RateAtEntry = &rate
		}

		payload := datatypes.JSONMap{}
		for k, v := range rec.Fields {
			payload[k] = v
		}

		events = append(events, model.ScanEvent{
			ID:          id,
			Plate:       utils.NormalizePlate(raw.Plate),
			RawPlate:    raw.Plate,
			Timestamp:   raw.Timestamp,
			VehicleType: raw.VehicleType,
			RateAtEntry: raw.RateAtEntry,
			Source:      model.ScanSourceImport,
			SourceKey:   sourceKey,
			RawPayload:  payload,
			CreatedAt:   receivedAt,
		})
	}

	if err := s.scanRepo.CreateBatch(ctx, events); err != nil {
		return nil, err
	}

	s.metrics.ScansIngested(string(model.ScanSourceImport), len(events))
	s.metrics.ScansDiscarded(metrics.ReasonMalformedRecord, malformed)
	if malformed > 0 {
		s.log.Warn().Int("malformed", malformed).Msg("non-object source records skipped")
	}
	s.log.Info().Int("records", len(events)).Int("skipped", skipped).Msg("scan events imported")

	return &ImportResult{Imported: len(events), Skipped: skipped, Malformed: malformed}, nil
}

// reconcile rebuilds every session from the full event log.
func (s *ParkingService) reconcile(ctx context.Context) (parking.Result, error) {
	stored, err := s.scanRepo.ListAll(ctx)
	if err != nil {
		return parking.Result{}, err
	}

	events := make([]parking.RawEvent, len(stored))
	for i, ev := range stored {
		events[i] = parking.RawEvent{
			ID:          ev.ID.String(),
			Plate:       ev.RawPlate,
			Timestamp:   ev.Timestamp,
			VehicleType: ev.VehicleType,
			RateAtEntry: ev.RateAtEntry,
		}
		if events[i].Plate == "" {
			events[i].Plate = ev.Plate
		}
	}

	started := time.Now()
	reconciler := parking.NewReconciler(s.rateService.Current(ctx), s.loc)
	result := reconciler.Reconcile(events)

	parked := 0
	for _, session := range result.Sessions {
		if session.IsParked() {
			parked++
		}
	}
	s.metrics.ObserveReconcile(time.Since(started), parked)
	s.metrics.ScansDiscarded(metrics.ReasonInvalidPlate, result.Discarded.InvalidPlate)
	s.metrics.ScansDiscarded(metrics.ReasonMalformedTimestamp, result.Discarded.MalformedTimestamp)

	for _, w := range result.Warnings {
		switch w.Kind {
		case parking.WarningMalformedTimestamp:
			s.log.Warn().Str("event_id", w.EventID).Str("plate", w.Plate).Msg(w.Detail)
		case parking.WarningNegativeDuration:
			s.metrics.ScansDiscarded(metrics.ReasonNegativeDuration, 1)
			s.log.Warn().Str("plate", w.Plate).Msg(w.Detail)
		}
	}

	return result, nil
}

type SessionQuery struct {
	Date   string
	Search string
	Status string
}

type SessionsView struct {
	parking.DashboardView
	Warnings  []parking.Warning     `json:"warnings"`
	Discarded parking.DiscardCounts `json:"discarded"`
}

// Sessions returns the record table, newest first, narrowed by query.
func (s *ParkingService) Sessions(ctx context.Context, query SessionQuery) (*SessionsView, error) {
	filter := parking.Filter{Search: query.Search}

	if raw := strings.TrimSpace(query.Date); raw != "" {
		day, err := parking.ParseDay(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Date = &day
	}

	status, ok := parking.ParseStatus(query.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, query.Status)
	}
	filter.Status = status

	result, err := s.reconcile(ctx)
	if err != nil {
		return nil, err
	}

	view := parking.Summarize(result.Sessions, filter, s.aggregator.Today(), s.loc)
	view.Sessions = parking.NewestFirst(view.Sessions)

	return &SessionsView{
		DashboardView: view,
		Warnings:      result.Warnings,
		Discarded:     result.Discarded,
	}, nil
}

// Analytics computes the dashboard snapshot for period.
func (s *ParkingService) Analytics(ctx context.Context, rawPeriod string) (*parking.Snapshot, error) {
	period, err := parseAnalyticsPeriod(rawPeriod)
	if err != nil {
		return nil, err
	}

	result, err := s.reconcile(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.aggregator.Aggregate(result.Sessions, period)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("period", string(period)).
		Str("revenue", snapshot.TotalRevenue.String()).
		Int("sessions", len(snapshot.SessionsInWindow)).
		Msg("analytics computed")

	return &snapshot, nil
}

type ReportKPIs struct {
	TotalRevenue     money.Decimal `json:"total_revenue"`
	OccupancyRate    int           `json:"occupancy_rate"`
	ActiveSessions   int           `json:"active_sessions"`
	AvgTurnoverHours float64       `json:"avg_turnover_hours"`
	TotalRecords     int           `json:"total_records"`
}

type Report struct {
	Title       string            `json:"title"`
	Month       string            `json:"month"`
	Period      parking.Period    `json:"period"`
	PeriodLabel string            `json:"period_label"`
	GeneratedAt time.Time         `json:"generated_at"`
	KPIs        ReportKPIs        `json:"kpis"`
	Records     []parking.Session `json:"records"`
}

// MonthlyReport gathers the figures and vehicle records of the report for
// period, which defaults to month-to-date. Rendering is left to the client.
func (s *ParkingService) MonthlyReport(ctx context.Context, rawPeriod string) (*Report, error) {
	if strings.TrimSpace(rawPeriod) == "" {
		rawPeriod = string(parking.PeriodMonthToDate)
	}

	snapshot, err := s.Analytics(ctx, rawPeriod)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().In(s.loc)
	return &Report{
		Title:       "Monthly Analytics Report",
		Month:       now.Format("January 2006"),
		Period:      snapshot.Period,
		PeriodLabel: snapshot.PeriodLabel,
		GeneratedAt: now,
		KPIs: ReportKPIs{
			TotalRevenue:     snapshot.TotalRevenue,
			OccupancyRate:    snapshot.OccupancyRate,
			ActiveSessions:   snapshot.ActiveSessionCount,
			AvgTurnoverHours: snapshot.AvgTurnoverHours,
			TotalRecords:     len(snapshot.SessionsInWindow),
		},
		Records: parking.NewestFirst(snapshot.SessionsInWindow),
	}, nil
}

// CleanupOldEvents deletes events received more than days ago.
func (s *ParkingService) CleanupOldEvents(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}

	cutoff := s.clock.Now().AddDate(0, 0, -days)
	deleted, err := s.scanRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.log.Info().Int("days", days).Int64("deleted", deleted).Msg("old scan events removed")
	return deleted, nil
}

func parseAnalyticsPeriod(raw string) (parking.Period, error) {
	if strings.TrimSpace(raw) == "" {
		return parking.PeriodSevenDay, nil
	}
	period, err := parking.ParsePeriod(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return period, nil
}
