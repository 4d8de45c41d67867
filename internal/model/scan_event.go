package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"parking-service/internal/money"
)

type ScanSource string

const (
	ScanSourceSensor ScanSource = "sensor"
	ScanSourceManual ScanSource = "manual"
	ScanSourceImport ScanSource = "import"
)

// ScanEvent is one stored plate sighting. Timestamp keeps the text the
// source sent; it is only interpreted when sessions are reconciled. Seq
// records arrival order. SourceKey is the upstream push id of imported
// records and is unique when set.
type ScanEvent struct {
	Seq         int64             `gorm:"primaryKey;autoIncrement" json:"-"`
	ID          uuid.UUID         `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Plate       string            `gorm:"type:varchar(32);index" json:"plate"`
	RawPlate    string            `gorm:"type:varchar(64)" json:"raw_plate"`
	Timestamp   string            `gorm:"type:varchar(64);not null" json:"timestamp"`
	VehicleType string            `gorm:"type:varchar(32)" json:"vehicle_type,omitempty"`
	RateAtEntry *money.Decimal    `gorm:"type:numeric(12,2)" json:"rate_at_entry,omitempty"`
	Source      ScanSource        `gorm:"type:varchar(16);not null" json:"source"`
	Zone        string            `gorm:"type:varchar(64)" json:"zone,omitempty"`
	SourceKey   *string           `gorm:"type:varchar(128);uniqueIndex" json:"source_key,omitempty"`
	RawPayload  datatypes.JSONMap `json:"raw_payload,omitempty"`
	CreatedAt   time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ScanEvent) TableName() string {
	return "scan_events"
}

func (e *ScanEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
