package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-service/internal/money"
)

// RateSettings is one revision of the hourly rate table. Rows are never
// updated; the newest row is the table in force.
type RateSettings struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Car       money.Decimal `gorm:"type:numeric(12,2);not null" json:"car"`
	Bike      money.Decimal `gorm:"type:numeric(12,2);not null" json:"bike"`
	Truck     money.Decimal `gorm:"type:numeric(12,2);not null" json:"truck"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}

func (RateSettings) TableName() string {
	return "rate_settings"
}

func (r *RateSettings) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
