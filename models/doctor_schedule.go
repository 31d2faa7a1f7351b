package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// DoctorSchedule is an explicit per-center slot list for one weekday.
type DoctorSchedule struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	DoctorID     uuid.UUID     `json:"doctor_id" gorm:"type:uuid;not null;uniqueIndex:idx_doctor_center_day"`
	CenterID     uuid.UUID     `json:"center_id" gorm:"type:uuid;not null;uniqueIndex:idx_doctor_center_day"`
	DayOfWeek    DayOfWeek     `json:"day_of_week" gorm:"not null;uniqueIndex:idx_doctor_center_day"`
	SlotDuration int           `json:"slot_duration" gorm:"not null;default:30"`
	Slots        ScheduleSlots `json:"slots" gorm:"type:jsonb"`
	IsAvailable  bool          `json:"is_available" gorm:"not null"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ScheduleSlot is one explicit bookable start time. Duration falls back to the
// schedule's SlotDuration when zero.
type ScheduleSlot struct {
	Time     string `json:"time"`
	Duration int    `json:"duration"`
}

type ScheduleSlots []ScheduleSlot

func (s ScheduleSlots) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue([]ScheduleSlot{})
	}
	return jsonValue([]ScheduleSlot(s))
}

func (s *ScheduleSlots) Scan(value interface{}) error {
	return scanJSON(value, s, "ScheduleSlots")
}

// ScheduleOverride replaces every other availability source for one date.
// An empty Windows list blocks the whole day.
type ScheduleOverride struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DoctorID  uuid.UUID `json:"doctor_id" gorm:"type:uuid;not null;uniqueIndex:idx_override_doctor_date"`
	Date      string    `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_override_doctor_date"`
	Windows   Windows   `json:"windows" gorm:"type:jsonb"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
