package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID                  uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Specialty           string      `json:"specialty"`
	WeeklyHours         WeeklyHours `json:"weekly_hours" gorm:"type:jsonb"`
	VacationDays        DateList    `json:"vacation_days" gorm:"type:jsonb"`
	HomeVisitsAvailable bool        `json:"home_visits_available" gorm:"default:false"`
	ConsultationFee     float64     `json:"consultation_fee"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// DateList is a JSONB list of ISO dates (YYYY-MM-DD).
type DateList []string

func (d DateList) Value() (driver.Value, error) {
	if d == nil {
		return jsonValue([]string{})
	}
	return jsonValue([]string(d))
}

func (d *DateList) Scan(value interface{}) error {
	return scanJSON(value, d, "DateList")
}

// Vacation blocks a doctor for every date in [StartDate, EndDate].
type Vacation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DoctorID  uuid.UUID `json:"doctor_id" gorm:"type:uuid;index;not null"`
	StartDate string    `json:"start_date" gorm:"type:varchar(10);not null"`
	EndDate   string    `json:"end_date" gorm:"type:varchar(10);not null"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
