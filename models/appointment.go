package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentStatus string

// Status transitions:
//
//	scheduled → confirmed → in_progress → completed
//	scheduled | confirmed → cancelled
//	confirmed → completed
//	confirmed → no_show
const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
	StatusNoShow     AppointmentStatus = "no_show"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

func (s AppointmentStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s AppointmentStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Active reports whether an appointment in status s holds its time slot.
func (s AppointmentStatus) Active() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that hold a doctor's time slot.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress}
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type AppointmentType string

const (
	TypeConsultation AppointmentType = "consultation"
	TypeFollowUp     AppointmentType = "follow_up"
	TypeEmergency    AppointmentType = "emergency"
	TypeRoutine      AppointmentType = "routine"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeRoutine:
		return true
	}
	return false
}

type VisitKind string

const (
	VisitClinic VisitKind = "clinic"
	VisitHome   VisitKind = "home"
)

func (k VisitKind) Valid() bool {
	return k == VisitClinic || k == VisitHome
}

const DefaultAppointmentMinutes = 30

type Appointment struct {
	ID                 uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	DoctorID           uuid.UUID         `json:"doctor_id" gorm:"type:uuid;not null;index:idx_appointments_doctor_date"`
	PatientID          uuid.UUID         `json:"patient_id" gorm:"type:uuid;not null;index"`
	CenterID           *uuid.UUID        `json:"center_id" gorm:"type:uuid"`
	Date               string            `json:"date" gorm:"type:varchar(10);not null;index:idx_appointments_doctor_date"`
	Time               string            `json:"time" gorm:"type:varchar(5);not null"`
	Duration           int               `json:"duration" gorm:"not null;default:30"`
	Type               AppointmentType   `json:"type" gorm:"type:varchar(20);not null"`
	VisitKind          VisitKind         `json:"visit_kind" gorm:"type:varchar(10);not null;default:'clinic'"`
	Status             AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'scheduled';index"`
	CancellationReason *string           `json:"cancellation_reason"`
	CancelledBy        *uuid.UUID        `json:"cancelled_by" gorm:"type:uuid"`
	Notes              string            `json:"notes" gorm:"type:text"`
	Fee                float64           `json:"fee"`

	// StartsAt and EndsAt mirror Date/Time/Duration for the storage-level
	// overlap constraint.
	StartsAt time.Time `json:"-" gorm:"type:timestamp;not null"`
	EndsAt   time.Time `json:"-" gorm:"type:timestamp;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransitionTo moves the appointment to next if the state machine allows it.
func (a *Appointment) TransitionTo(next AppointmentStatus) error {
	if a.Status.Terminal() {
		return fmt.Errorf("no transitions allowed from %s", a.Status)
	}
	if !CanTransition(a.Status, next) {
		return fmt.Errorf("invalid transition from %s to %s", a.Status, next)
	}
	a.Status = next
	return nil
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	return nil
}

func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	return a.SyncSpan()
}

// SyncSpan recomputes StartsAt/EndsAt from Date, Time and Duration as
// wall-clock instants, which is all the overlap constraint compares.
func (a *Appointment) SyncSpan() error {
	start, err := time.Parse("2006-01-02 15:04", a.Date+" "+a.Time)
	if err != nil {
		return fmt.Errorf("appointment slot %q %q: %w", a.Date, a.Time, err)
	}
	d := a.Duration
	if d <= 0 {
		d = DefaultAppointmentMinutes
	}
	a.StartsAt = start
	a.EndsAt = start.Add(time.Duration(d) * time.Minute)
	return nil
}

// Overlaps reports whether a and b occupy intersecting [start, end) spans.
func (a *Appointment) Overlaps(b *Appointment) bool {
	return a.StartsAt.Before(b.EndsAt) && b.StartsAt.Before(a.EndsAt)
}
