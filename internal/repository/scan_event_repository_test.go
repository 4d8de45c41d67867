package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"parking-service/internal/model"
	"parking-service/internal/money"
)

func TestScanEventRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewScanEventRepository(newTestDB(t))

	rate := money.MustDecimal("20")
	first := &model.ScanEvent{
		Plate:       "TS01AB1234",
		RawPlate:    "ts01 ab 1234",
		Timestamp:   "2024-01-01 09:00",
		VehicleType: "car",
		RateAtEntry: &rate,
		Source:      model.ScanSourceSensor,
		Zone:        "north-gate",
	}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.ID)

	require.NoError(t, repo.CreateBatch(ctx, []model.ScanEvent{
		{Plate: "KA05MN0001", Timestamp: "01/01/24 09:30", Source: model.ScanSourceImport,
			RawPayload: datatypes.JSONMap{"number_plate": "KA05MN0001", "date_time": "01/01/24 09:30"}},
		{Plate: "TS01AB1234", Timestamp: "2024-01-01 11:05", Source: model.ScanSourceImport},
	}))

	events, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, "ts01 ab 1234", events[0].RawPlate)
	require.NotNil(t, events[0].RateAtEntry)
	assert.Equal(t, "20", events[0].RateAtEntry.String())
	assert.Equal(t, "north-gate", events[0].Zone)

	assert.Equal(t, "KA05MN0001", events[1].Plate)
	assert.Nil(t, events[1].RateAtEntry)
	assert.Equal(t, "KA05MN0001", events[1].RawPayload["number_plate"])

	assert.Equal(t, "2024-01-01 11:05", events[2].Timestamp)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestScanEventRepository_CreateBatchEmpty(t *testing.T) {
	repo := NewScanEventRepository(newTestDB(t))

	require.NoError(t, repo.CreateBatch(context.Background(), nil))
}

func TestScanEventRepository_DeleteOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewScanEventRepository(newTestDB(t))

	now := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBatch(ctx, []model.ScanEvent{
		{Plate: "OLD1", Timestamp: "2023-01-01 09:00", Source: model.ScanSourceSensor, CreatedAt: now.AddDate(0, 0, -400)},
		{Plate: "OLD2", Timestamp: "2023-06-01 09:00", Source: model.ScanSourceSensor, CreatedAt: now.AddDate(0, 0, -200)},
		{Plate: "NEW1", Timestamp: "2024-03-01 09:00", Source: model.ScanSourceSensor, CreatedAt: now.AddDate(0, 0, -14)},
	}))

	deleted, err := repo.DeleteOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	events, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "NEW1", events[0].Plate)
}

func TestScanEventRepository_ExistingSourceKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewScanEventRepository(newTestDB(t))

	key := func(s string) *string { return &s }
	require.NoError(t, repo.CreateBatch(ctx, []model.ScanEvent{
		{Plate: "A1", Timestamp: "2024-03-15 08:00", Source: model.ScanSourceImport, SourceKey: key("-NxA")},
		{Plate: "A1", Timestamp: "2024-03-15 09:00", Source: model.ScanSourceImport, SourceKey: key("-NxB")},
		{Plate: "B2", Timestamp: "2024-03-15 09:30", Source: model.ScanSourceSensor},
	}))

	existing, err := repo.ExistingSourceKeys(ctx, []string{"-NxB", "-NxC"})
	require.NoError(t, err)
	assert.Len(t, existing, 1)
	assert.Contains(t, existing, "-NxB")

	existing, err = repo.ExistingSourceKeys(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, existing)

	err = repo.Create(ctx, &model.ScanEvent{Plate: "A1", Timestamp: "2024-03-15 10:00", Source: model.ScanSourceImport, SourceKey: key("-NxA")})
	assert.Error(t, err)
}
