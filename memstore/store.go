// Package memstore keeps doctors, schedules, patients and appointments in
// process memory. It enforces the same one-active-appointment-per-doctor
// overlap rule as the Postgres schema, so the booking engine behaves the same
// on either backend.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

type Store struct {
	mu sync.RWMutex

	doctors      map[uuid.UUID]models.Doctor
	centers      map[uuid.UUID]models.Center
	patients     map[uuid.UUID]models.Patient
	vacations    map[uuid.UUID][]models.Vacation
	overrides    map[overrideKey]models.ScheduleOverride
	schedules    map[scheduleKey]models.DoctorSchedule
	assignments  map[assignmentKey]models.DoctorCenterAssignment
	appointments map[uuid.UUID]models.Appointment

	now func() time.Time
}

type overrideKey struct {
	doctor uuid.UUID
	date   string
}

type scheduleKey struct {
	doctor uuid.UUID
	center uuid.UUID
	day    models.DayOfWeek
}

type assignmentKey struct {
	doctor uuid.UUID
	center uuid.UUID
}

func New() *Store {
	return &Store{
		doctors:      make(map[uuid.UUID]models.Doctor),
		centers:      make(map[uuid.UUID]models.Center),
		patients:     make(map[uuid.UUID]models.Patient),
		vacations:    make(map[uuid.UUID][]models.Vacation),
		overrides:    make(map[overrideKey]models.ScheduleOverride),
		schedules:    make(map[scheduleKey]models.DoctorSchedule),
		assignments:  make(map[assignmentKey]models.DoctorCenterAssignment),
		appointments: make(map[uuid.UUID]models.Appointment),
		now:          time.Now,
	}
}

var (
	_ scheduling.AppointmentRepository = (*Store)(nil)
	_ scheduling.ScheduleRepository    = (*Store)(nil)
	_ scheduling.PatientRepository     = (*Store)(nil)
	_ scheduling.ScheduleWriter        = (*Store)(nil)
)

// Appointments

func (s *Store) FindByDoctorAndDate(_ context.Context, doctorID uuid.UUID, date string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Date == date {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id uuid.UUID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) Insert(_ context.Context, a *models.Appointment) (*models.Appointment, error) {
	row := *a
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Status == "" {
		row.Status = models.StatusScheduled
	}
	if err := row.SyncSpan(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.appointments[row.ID]; exists {
		return nil, &scheduling.ConflictError{Message: "appointment " + row.ID.String() + " already exists"}
	}
	if s.overlapsLocked(&row) {
		return nil, &scheduling.ConflictError{}
	}
	now := s.now()
	row.CreatedAt, row.UpdatedAt = now, now
	s.appointments[row.ID] = row
	return &row, nil
}

func (s *Store) Update(_ context.Context, id uuid.UUID, patch scheduling.AppointmentPatch) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.appointments[id]
	if !ok {
		return nil, &scheduling.NotFoundError{Resource: "appointment", ID: id.String()}
	}
	if patch.ExpectStatus != nil && row.Status != *patch.ExpectStatus {
		return nil, &scheduling.ConflictError{Message: "appointment status changed concurrently"}
	}

	applyPatch(&row, patch)
	if err := row.SyncSpan(); err != nil {
		return nil, err
	}
	if s.overlapsLocked(&row) {
		return nil, &scheduling.ConflictError{}
	}
	row.UpdatedAt = s.now()
	s.appointments[id] = row
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
		r := *p.CancellationReason
		row.CancellationReason = &r
	}
	if p.CancelledBy != nil {
		by := *p.CancelledBy
		row.CancelledBy = &by
	}
	if p.Notes != nil {
		row.Notes = *p.Notes
	}
}

// overlapsLocked reports whether an active row would collide with another
// active row of the same doctor. Callers hold s.mu.
func (s *Store) overlapsLocked(row *models.Appointment) bool {
	if !row.Status.Active() {
		return false
	}
	for id, other := range s.appointments {
		if id == row.ID || other.DoctorID != row.DoctorID || !other.Status.Active() {
			continue
		}
		if row.Overlaps(&other) {
			return true
		}
	}
	return false
}

func (s *Store) FindSweepCandidates(_ context.Context, f scheduling.SweepFilter) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Appointment
	for _, a := range s.appointments {
		if a.Status != models.StatusScheduled && a.Status != models.StatusConfirmed {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.OnOrBefore != "" && a.Date > f.OnOrBefore {
			continue
		}
		out = append(out, a)
	}
	sortByStart(out)
	return out, nil
}

// CancelMany holds the write lock for the whole batch, so no reader sees a
// partial sweep.
func (s *Store) CancelMany(_ context.Context, ids []uuid.UUID, reason string) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var changed []uuid.UUID
	for _, id := range ids {
		row, ok := s.appointments[id]
		if !ok || (row.Status != models.StatusScheduled && row.Status != models.StatusConfirmed) {
			continue
		}
		r := reason
		row.Status = models.StatusCancelled
		row.CancellationReason = &r
		row.UpdatedAt = now
		s.appointments[id] = row
		changed = append(changed, id)
	}
	return changed, nil
}

func (s *Store) FindUpcoming(_ context.Context, dates []string) ([]models.Appointment, error) {
	want := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		want[d] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Appointment
	for _, a := range s.appointments {
		if _, ok := want[a.Date]; ok && a.Status == models.StatusConfirmed {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(a []models.Appointment) {
	sort.Slice(a, func(i, j int) bool {
		if a[i].Date != a[j].Date {
			return a[i].Date < a[j].Date
		}
		return a[i].Time < a[j].Time
	})
}

// Schedules

func (s *Store) GetDoctor(_ context.Context, doctorID uuid.UUID) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doctors[doctorID]
	if !ok {
		return nil, &scheduling.NotFoundError{Resource: "doctor", ID: doctorID.String()}
	}
	return &d, nil
}

func (s *Store) GetCenter(_ context.Context, centerID uuid.UUID) (*models.Center, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.centers[centerID]
	if !ok {
		return nil, &scheduling.NotFoundError{Resource: "center", ID: centerID.String()}
	}
	return &c, nil
}

func (s *Store) GetWeeklyHours(ctx context.Context, doctorID uuid.UUID) (models.WeeklyHours, error) {
	d, err := s.GetDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return d.WeeklyHours, nil
}

func (s *Store) GetVacationDays(_ context.Context, doctorID uuid.UUID) (scheduling.DateSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := scheduling.NewDateSet(s.doctors[doctorID].VacationDays...)
	for _, v := range s.vacations[doctorID] {
		set.AddRange(v.StartDate, v.EndDate)
	}
	return set, nil
}

func (s *Store) GetOverride(_ context.Context, doctorID uuid.UUID, date string) (*models.ScheduleOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.overrides[overrideKey{doctorID, date}]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *Store) GetDoctorSchedule(_ context.Context, doctorID, centerID uuid.UUID, day models.DayOfWeek) (*models.DoctorSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[scheduleKey{doctorID, centerID, day}]
	if !ok {
		return nil, nil
	}
	return &sched, nil
}

func (s *Store) GetPatient(_ context.Context, patientID uuid.UUID) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[patientID]
	if !ok {
		return nil, &scheduling.NotFoundError{Resource: "patient", ID: patientID.String()}
	}
	return &p, nil
}
