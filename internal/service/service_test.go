package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parking-service/internal/client"
	"parking-service/internal/clock"
	"parking-service/internal/metrics"
	"parking-service/internal/model"
	"parking-service/internal/parking"
	"parking-service/internal/repository"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

type fixture struct {
	db      *gorm.DB
	clock   *clock.Fake
	metrics *metrics.Collector
	rates   *RateService
	parking *ParkingService
}

// newFixture wires the services on an in-memory database with the clock at
// Friday 15 March 2024, 12:00 IST.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSource(t, nil)
}

func newFixtureWithSource(t *testing.T, source *client.SourceClient) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.ScanEvent{}, &model.RateSettings{}))

	fake := clock.NewFake(time.Date(2024, time.March, 15, 12, 0, 0, 0, ist))
	collector := metrics.New()
	log := zerolog.Nop()

	rates := NewRateService(repository.NewRateRepository(db), parking.DefaultRates(), collector, log)
	parkingService := NewParkingService(repository.NewScanEventRepository(db), rates, collector, log, ParkingOptions{
		Clock:      fake,
		Location:   ist,
		Comparison: parking.CompareShiftDays,
		Source:     source,
	})

	return &fixture{db: db, clock: fake, metrics: collector, rates: rates, parking: parkingService}
}

func (f *fixture) closeDB(t *testing.T) {
	t.Helper()
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func counterValue(t *testing.T, c *metrics.Collector, name string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
