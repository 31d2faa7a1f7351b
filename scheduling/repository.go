package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
)

// AppointmentPatch lists the fields an update may change. Nil fields are left
// untouched. ExpectStatus, when set, makes the update conditional on the
// stored status; a mismatch is reported as a ConflictError.
type AppointmentPatch struct {
	Date               *string
	Time               *string
	Status             *models.AppointmentStatus
	CancellationReason *string
	CancelledBy        *uuid.UUID
	Notes              *string

	ExpectStatus *models.AppointmentStatus
}

// SweepFilter narrows the absence sweep. OnOrBefore bounds the appointment
// date so the store never returns future days.
type SweepFilter struct {
	DoctorID   *uuid.UUID
	PatientID  *uuid.UUID
	OnOrBefore string
}

// AppointmentRepository persists appointments. Insert and Update must reject
// any write that would leave two active appointments of one doctor
// overlapping, returning a *ConflictError.
type AppointmentRepository interface {
	FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]models.Appointment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	Insert(ctx context.Context, a *models.Appointment) (*models.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch AppointmentPatch) (*models.Appointment, error)

	// FindSweepCandidates returns scheduled or confirmed appointments matching f.
	FindSweepCandidates(ctx context.Context, f SweepFilter) ([]models.Appointment, error)
	// CancelMany cancels every listed appointment still scheduled or confirmed,
	// all or nothing, and returns the ids of the rows it changed.
	CancelMany(ctx context.Context, ids []uuid.UUID, reason string) ([]uuid.UUID, error)
	// FindUpcoming returns confirmed appointments on the given dates.
	FindUpcoming(ctx context.Context, dates []string) ([]models.Appointment, error)
}

// ScheduleRepository exposes the availability sources of a doctor. Lookups
// that find nothing return (nil, nil) except GetDoctor, GetCenter and
// GetWeeklyHours, which return a *NotFoundError.
type ScheduleRepository interface {
	GetDoctor(ctx context.Context, doctorID uuid.UUID) (*models.Doctor, error)
	GetCenter(ctx context.Context, centerID uuid.UUID) (*models.Center, error)
	GetWeeklyHours(ctx context.Context, doctorID uuid.UUID) (models.WeeklyHours, error)
	GetVacationDays(ctx context.Context, doctorID uuid.UUID) (DateSet, error)
	GetOverride(ctx context.Context, doctorID uuid.UUID, date string) (*models.ScheduleOverride, error)
	GetDoctorSchedule(ctx context.Context, doctorID, centerID uuid.UUID, day models.DayOfWeek) (*models.DoctorSchedule, error)
}

// PatientRepository answers patient existence and contact lookups.
type PatientRepository interface {
	GetPatient(ctx context.Context, patientID uuid.UUID) (*models.Patient, error)
}
