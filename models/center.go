package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type Center struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	City           string         `json:"city"`
	PhoneNumber    string         `json:"phone_number"`
	OperatingHours OperatingHours `json:"operating_hours" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// OpeningTimes is a center's open/close pair for one weekday.
type OpeningTimes struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// OperatingHours maps a lowercase weekday name to its opening times; nil means closed.
type OperatingHours map[string]*OpeningTimes

func (o OperatingHours) Value() (driver.Value, error) {
	if o == nil {
		return jsonValue(map[string]*OpeningTimes{})
	}
	return jsonValue(map[string]*OpeningTimes(o))
}

func (o *OperatingHours) Scan(value interface{}) error {
	return scanJSON(value, o, "OperatingHours")
}

// DoctorCenterAssignment links a doctor to a center. At most one row per doctor is primary.
type DoctorCenterAssignment struct {
	DoctorID  uuid.UUID `json:"doctor_id" gorm:"type:uuid;primaryKey"`
	CenterID  uuid.UUID `json:"center_id" gorm:"type:uuid;primaryKey"`
	IsPrimary bool      `json:"is_primary" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
