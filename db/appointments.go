package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements the scheduling repositories on Postgres through gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

var (
	_ scheduling.AppointmentRepository = (*Store)(nil)
	_ scheduling.ScheduleRepository    = (*Store)(nil)
	_ scheduling.PatientRepository     = (*Store)(nil)
	_ scheduling.ScheduleWriter        = (*Store)(nil)
)

var sweepStatuses = []models.AppointmentStatus{models.StatusScheduled, models.StatusConfirmed}

func (s *Store) FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, date).
		Order("time").
		Find(&out).Error
	return out, err
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var apt models.Appointment
	err := s.db.WithContext(ctx).First(&apt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

// Insert relies on the partial unique index and the exclusion constraint to
// reject a second active booking over the same span.
func (s *Store) Insert(ctx context.Context, a *models.Appointment) (*models.Appointment, error) {
	row := *a
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translate(err, "appointment", row.ID.String())
	}
	return &row, nil
}

// Update locks the row, checks the expected status and saves the patch in
// one transaction.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch scheduling.AppointmentPatch) (*models.Appointment, error) {
	var row models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if patch.ExpectStatus != nil && row.Status != *patch.ExpectStatus {
			return &scheduling.ConflictError{Message: "appointment status changed concurrently"}
		}
		applyPatch(&row, patch)
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, translate(err, "appointment", id.String())
	}
	return &row, nil
}

func applyPatch(row *models.Appointment, p scheduling.AppointmentPatch) {
	if p.Date != nil {
		row.Date = *p.Date
	}
	if p.Time != nil {
		row.Time = *p.Time
	}
	if p.Status != nil {
		row.Status = *p.Status
	}
	if p.CancellationReason != nil {
		row.CancellationReason = p.CancellationReason
	}
	if p.CancelledBy != nil {
		row.CancelledBy = p.CancelledBy
	}
	if p.Notes != nil {
		row.Notes = *p.Notes
	}
}

func (s *Store) FindSweepCandidates(ctx context.Context, f scheduling.SweepFilter) ([]models.Appointment, error) {
	q := s.db.WithContext(ctx).Where("status IN ?", sweepStatuses)
	if f.DoctorID != nil {
		q = q.Where("doctor_id = ?", *f.DoctorID)
	}
	if f.PatientID != nil {
		q = q.Where("patient_id = ?", *f.PatientID)
	}
	if f.OnOrBefore != "" {
		q = q.Where("date <= ?", f.OnOrBefore)
	}
	var out []models.Appointment
	err := q.Order("date, time").Find(&out).Error
	return out, err
}

// CancelMany is a single UPDATE ... RETURNING inside a transaction; either
// every matching row changes or none does.
func (s *Store) CancelMany(ctx context.Context, ids []uuid.UUID, reason string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var changed []models.Appointment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{SkipHooks: true}).
			Model(&changed).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
			Where("id IN ? AND status IN ?", ids, sweepStatuses).
			Updates(map[string]interface{}{
				"status":              models.StatusCancelled,
				"cancellation_reason": reason,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("bulk cancel: %w", res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, len(changed))
	for i, a := range changed {
		out[i] = a.ID
	}
	return out, nil
}

func (s *Store) FindUpcoming(ctx context.Context, dates []string) ([]models.Appointment, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Where("status = ? AND date IN ?", models.StatusConfirmed, dates).
		Order("date, time").
		Find(&out).Error
	return out, err
}

// GetPatient only confirms the patient exists and returns contact details.
func (s *Store) GetPatient(ctx context.Context, patientID uuid.UUID) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).First(&p, "id = ?", patientID).Error; err != nil {
		return nil, translate(err, "patient", patientID.String())
	}
	return &p, nil
}
