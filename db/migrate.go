package db

import (
	"fmt"

	"github.com/meinhoongagan/clinic-booking/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// overlapStatements install the storage-level double-booking guard: a unique
// index on identical active slots and an exclusion constraint on overlapping
// active spans of one doctor.
var overlapStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_slot
		ON appointments (doctor_id, date, time)
		WHERE status IN ('scheduled', 'confirmed', 'in_progress')`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap') THEN
			ALTER TABLE appointments ADD CONSTRAINT appointments_no_overlap
				EXCLUDE USING gist (doctor_id WITH =, tsrange(starts_at, ends_at) WITH &&)
				WHERE (status IN ('scheduled', 'confirmed', 'in_progress'));
		END IF;
	END $$`,
}

// Migrate creates or updates every table the booking engine uses.
func Migrate(gdb *gorm.DB, log *zap.Logger) error {
	err := gdb.AutoMigrate(
		&models.Doctor{},
		&models.Center{},
		&models.DoctorCenterAssignment{},
		&models.DoctorSchedule{},
		&models.ScheduleOverride{},
		&models.Vacation{},
		&models.Patient{},
		&models.Appointment{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	for _, stmt := range overlapStatements {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("installing overlap guard: %w", err)
		}
	}

	log.Info("migrations applied")
	return nil
}
