package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// roomNoOverlapSQL adds a database-level guarantee that two live bookings
// of one room never overlap. Postgres only.
const roomNoOverlapSQL = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_room_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_room_no_overlap
			EXCLUDE USING gist (room_id WITH =, tstzrange(start_time, end_time, '[)') WITH &&)
			WHERE (status <> 'cancelled');
	END IF;
END $$;`

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&userModel{},
		&studioModel{},
		&roomModel{},
		&equipmentModel{},
		&staffMemberModel{},
		&bookingModel{},
		&bookingEquipmentModel{},
		&bookingStaffModel{},
		&notificationModel{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		return fmt.Errorf("enable btree_gist: %w", err)
	}
	if err := db.Exec(roomNoOverlapSQL).Error; err != nil {
		return fmt.Errorf("room overlap constraint: %w", err)
	}
	return nil
}
