package database

import (
	"fmt"

	"gorm.io/gorm"
)

// seat row shape per status; added NOT VALID so rows written before the
// constraint existed are left for the release job
var seatChecks = []struct {
	name string
	expr string
}{
	{"chk_seat_blocked_has_hold", "status <> 'BLOCKED' OR (blocked_by_id IS NOT NULL AND blocked_until IS NOT NULL)"},
	{"chk_seat_booked_has_booking", "status <> 'BOOKED' OR (booking_id IS NOT NULL AND blocked_by_id IS NULL AND blocked_until IS NULL)"},
	{"chk_seat_available_is_clear", "status <> 'AVAILABLE' OR (booking_id IS NULL AND blocked_by_id IS NULL AND blocked_until IS NULL)"},
	{"chk_seat_status", "status IN ('AVAILABLE', 'BLOCKED', 'BOOKED')"},
}

var seatIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_schedule_seat ON seat_availabilities (schedule_id, seat_id)`,
	`CREATE INDEX IF NOT EXISTS idx_seat_blocked_until ON seat_availabilities (blocked_until) WHERE status = 'BLOCKED'`,
	`CREATE INDEX IF NOT EXISTS idx_seat_blocked_by ON seat_availabilities (blocked_by_id) WHERE status = 'BLOCKED'`,
}

// MigrateConstraints adds the seat inventory constraints AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	for _, check := range seatChecks {
		stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		ALTER TABLE seat_availabilities ADD CONSTRAINT %s CHECK (%s) NOT VALID;
	END IF;
END $$`, check.name, check.name, check.expr)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", check.name, err)
		}
	}

	for _, stmt := range seatIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}
