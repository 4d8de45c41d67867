package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS scan_events (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE DEFAULT uuid_generate_v4(),
		plate VARCHAR(32) NOT NULL DEFAULT '',
		raw_plate VARCHAR(64) NOT NULL DEFAULT '',
		timestamp VARCHAR(64) NOT NULL,
		vehicle_type VARCHAR(32) NOT NULL DEFAULT '',
		rate_at_entry NUMERIC(12,2),
		source VARCHAR(16) NOT NULL,
		zone VARCHAR(64) NOT NULL DEFAULT '',
		raw_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`ALTER TABLE scan_events ADD COLUMN IF NOT EXISTS source_key VARCHAR(128);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_scan_events_source_key ON scan_events (source_key);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_scan_events_source') THEN
			ALTER TABLE scan_events
				ADD CONSTRAINT chk_scan_events_source CHECK (source IN ('sensor', 'manual', 'import'));
		END IF;
	END
	$$;`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_plate ON scan_events (plate);`,
	`CREATE INDEX IF NOT EXISTS idx_scan_events_created_at ON scan_events (created_at);`,
	`CREATE TABLE IF NOT EXISTS rate_settings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		car NUMERIC(12,2) NOT NULL,
		bike NUMERIC(12,2) NOT NULL,
		truck NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_rate_settings_created_at ON rate_settings (created_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
