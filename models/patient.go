package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the minimal patient identity the booking engine needs. Profiles
// are owned by the patient service.
type Patient struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
