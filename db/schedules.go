package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetDoctor(ctx context.Context, doctorID uuid.UUID) (*models.Doctor, error) {
	var d models.Doctor
	if err := s.db.WithContext(ctx).First(&d, "id = ?", doctorID).Error; err != nil {
		return nil, translate(err, "doctor", doctorID.String())
	}
	return &d, nil
}

func (s *Store) GetCenter(ctx context.Context, centerID uuid.UUID) (*models.Center, error) {
	var c models.Center
	if err := s.db.WithContext(ctx).First(&c, "id = ?", centerID).Error; err != nil {
		return nil, translate(err, "center", centerID.String())
	}
	return &c, nil
}

func (s *Store) GetWeeklyHours(ctx context.Context, doctorID uuid.UUID) (models.WeeklyHours, error) {
	var d models.Doctor
	err := s.db.WithContext(ctx).Select("id", "weekly_hours").First(&d, "id = ?", doctorID).Error
	if err != nil {
		return nil, translate(err, "doctor", doctorID.String())
	}
	return d.WeeklyHours, nil
}

// GetVacationDays merges the doctor's single vacation dates with the
// vacation ranges table.
func (s *Store) GetVacationDays(ctx context.Context, doctorID uuid.UUID) (scheduling.DateSet, error) {
	var d models.Doctor
	err := s.db.WithContext(ctx).Select("id", "vacation_days").First(&d, "id = ?", doctorID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return scheduling.DateSet{}, err
	}
	set := scheduling.NewDateSet(d.VacationDays...)

	var ranges []models.Vacation
	if err := s.db.WithContext(ctx).Where("doctor_id = ?", doctorID).Find(&ranges).Error; err != nil {
		return scheduling.DateSet{}, err
	}
	for _, v := range ranges {
		set.AddRange(v.StartDate, v.EndDate)
	}
	return set, nil
}

func (s *Store) GetOverride(ctx context.Context, doctorID uuid.UUID, date string) (*models.ScheduleOverride, error) {
	var o models.ScheduleOverride
	err := s.db.WithContext(ctx).First(&o, "doctor_id = ? AND date = ?", doctorID, date).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) GetDoctorSchedule(ctx context.Context, doctorID, centerID uuid.UUID, day models.DayOfWeek) (*models.DoctorSchedule, error) {
	var sched models.DoctorSchedule
	err := s.db.WithContext(ctx).
		First(&sched, "doctor_id = ? AND center_id = ? AND day_of_week = ?", doctorID, centerID, day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (s *Store) SetWeeklyHours(ctx context.Context, doctorID uuid.UUID, hours models.WeeklyHours) error {
	res := s.db.WithContext(ctx).
		Model(&models.Doctor{}).
		Where("id = ?", doctorID).
		Update("weekly_hours", hours)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &scheduling.NotFoundError{Resource: "doctor", ID: doctorID.String()}
	}
	return nil
}

func (s *Store) UpsertOverride(ctx context.Context, o *models.ScheduleOverride) (*models.ScheduleOverride, error) {
	row := *o
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"windows", "reason", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.GetOverride(ctx, row.DoctorID, row.Date)
}

func (s *Store) AddVacation(ctx context.Context, v *models.Vacation) (*models.Vacation, error) {
	row := *v
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) UpsertDoctorSchedule(ctx context.Context, sched *models.DoctorSchedule) (*models.DoctorSchedule, error) {
	row := *sched
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "center_id"}, {Name: "day_of_week"}},
		DoUpdates: clause.AssignmentColumns([]string{"slot_duration", "slots", "is_available", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	return s.GetDoctorSchedule(ctx, row.DoctorID, row.CenterID, row.DayOfWeek)
}

// AssignCenter clears any previous primary in the same transaction when the
// new link is primary.
func (s *Store) AssignCenter(ctx context.Context, a models.DoctorCenterAssignment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsPrimary {
			err := tx.Model(&models.DoctorCenterAssignment{}).
				Where("doctor_id = ? AND center_id <> ? AND is_primary", a.DoctorID, a.CenterID).
				Update("is_primary", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doctor_id"}, {Name: "center_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_primary"}),
		}).Create(&a).Error
	})
}
