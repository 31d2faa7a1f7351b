package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

// SaveDoctor inserts or replaces a doctor. A zero ID is assigned.
func (s *Store) SaveDoctor(d models.Doctor) models.Doctor {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	s.doctors[d.ID] = d
	return d
}

func (s *Store) SaveCenter(c models.Center) models.Center {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.centers[c.ID] = c
	return c
}

func (s *Store) SavePatient(p models.Patient) models.Patient {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
	return p
}

func (s *Store) SetWeeklyHours(_ context.Context, doctorID uuid.UUID, hours models.WeeklyHours) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.doctors[doctorID]
	if !ok {
		return &scheduling.NotFoundError{Resource: "doctor", ID: doctorID.String()}
	}
	d.WeeklyHours = hours
	d.UpdatedAt = s.now()
	s.doctors[doctorID] = d
	return nil
}

func (s *Store) UpsertOverride(_ context.Context, o *models.ScheduleOverride) (*models.ScheduleOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := overrideKey{o.DoctorID, o.Date}
	row := *o
	now := s.now()
	if prev, ok := s.overrides[key]; ok {
		row.ID, row.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	s.overrides[key] = row
	return &row, nil
}

func (s *Store) AddVacation(_ context.Context, v *models.Vacation) (*models.Vacation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := *v
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = s.now()
	s.vacations[row.DoctorID] = append(s.vacations[row.DoctorID], row)
	return &row, nil
}

func (s *Store) UpsertDoctorSchedule(_ context.Context, sched *models.DoctorSchedule) (*models.DoctorSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scheduleKey{sched.DoctorID, sched.CenterID, sched.DayOfWeek}
	row := *sched
	row.Slots = append(models.ScheduleSlots(nil), sched.Slots...)
	now := s.now()
	if prev, ok := s.schedules[key]; ok {
		row.ID, row.CreatedAt = prev.ID, prev.CreatedAt
	} else {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	s.schedules[key] = row
	return &row, nil
}

func (s *Store) AssignCenter(_ context.Context, a models.DoctorCenterAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.IsPrimary {
		for k, existing := range s.assignments {
			if k.doctor == a.DoctorID && existing.IsPrimary {
				existing.IsPrimary = false
				s.assignments[k] = existing
			}
		}
	}
	key := assignmentKey{a.DoctorID, a.CenterID}
	if prev, ok := s.assignments[key]; ok {
		a.CreatedAt = prev.CreatedAt
	} else {
		a.CreatedAt = s.now()
	}
	s.assignments[key] = a
	return nil
}

// Assignments lists a doctor's center links.
func (s *Store) Assignments(doctorID uuid.UUID) []models.DoctorCenterAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DoctorCenterAssignment
	for k, a := range s.assignments {
		if k.doctor == doctorID {
			out = append(out, a)
		}
	}
	return out
}
