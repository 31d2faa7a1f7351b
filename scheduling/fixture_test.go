package scheduling_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/memstore"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

// 2025-03-10 is a Monday.
const (
	monday    = "2025-03-10"
	tuesday   = "2025-03-11"
	wednesday = "2025-03-12"
	saturday  = "2025-03-15"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu     sync.Mutex
	events []scheduling.Event
}

func (r *recorder) AppointmentChanged(_ context.Context, e scheduling.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []scheduling.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]scheduling.EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

type recordHook struct {
	mu    sync.Mutex
	calls []scheduling.CompletionRecord
}

func (h *recordHook) RecordCompletion(_ context.Context, _ models.Appointment, rec scheduling.CompletionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, rec)
	return nil
}

type fixture struct {
	store    *memstore.Store
	clock    *fakeClock
	events   *recorder
	records  *recordHook
	engine   *scheduling.Engine
	doctor   models.Doctor
	patient  models.Patient
	center   models.Center
	location *time.Location
}

func strp(s string) *string { return &s }

// officeHours is Monday to Friday 09:00-17:00 with lunch 12:00-13:00.
func officeHours() models.WeeklyHours {
	wh := models.WeeklyHours{}
	for d := models.Monday; d <= models.Friday; d++ {
		wh[d] = models.WorkingHours{
			Start:      "09:00",
			End:        "17:00",
			BreakStart: strp("12:00"),
			BreakEnd:   strp("13:00"),
			IsWorking:  true,
		}
	}
	return wh
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memstore.New(),
		events:   &recorder{},
		records:  &recordHook{},
		location: time.UTC,
	}
	f.clock = &fakeClock{now: time.Date(2025, 3, 10, 8, 0, 0, 0, f.location)}
	f.doctor = f.store.SaveDoctor(models.Doctor{
		Name:            "Dr. Mehta",
		Email:           "mehta@clinic.test",
		WeeklyHours:     officeHours(),
		ConsultationFee: 500,
	})
	f.patient = f.store.SavePatient(models.Patient{Name: "Asha", Email: "asha@example.test"})
	f.center = f.store.SaveCenter(models.Center{Name: "North Clinic"})

	f.engine = f.engineOver(f.store)
	return f
}

// engineOver builds an engine whose appointment reads and writes go through
// appointments; everything else still uses the fixture's store.
func (f *fixture) engineOver(appointments scheduling.AppointmentRepository) *scheduling.Engine {
	return scheduling.NewEngine(scheduling.Deps{
		Appointments:   appointments,
		Schedules:      f.store,
		Patients:       f.store,
		ScheduleWriter: f.store,
		Clock:          f.clock,
		Observer:       f.events,
		MedicalRecords: f.records,
	}, scheduling.Policy{DefaultSlotMinutes: 30})
}

// staleReads hides every existing appointment from the availability read, as
// if the caller's snapshot was taken before a concurrent booking landed.
type staleReads struct {
	*memstore.Store
}

func (staleReads) FindByDoctorAndDate(context.Context, uuid.UUID, string) ([]models.Appointment, error) {
	return nil, nil
}

// failingCancel fails the absence sweep's batch write.
type failingCancel struct {
	*memstore.Store
	err error
}

func (s failingCancel) CancelMany(context.Context, []uuid.UUID, string) ([]uuid.UUID, error) {
	return nil, s.err
}

func (f *fixture) at(date, clock string) time.Time {
	t, err := scheduling.At(date, clock, f.location)
	if err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) book(t *testing.T, date, clock string) *models.Appointment {
	t.Helper()
	apt, err := f.engine.Booking.CreateBooking(context.Background(), f.request(date, clock))
	if err != nil {
		t.Fatalf("booking %s %s: %v", date, clock, err)
	}
	return apt
}

func (f *fixture) request(date, clock string) scheduling.BookingRequest {
	return scheduling.BookingRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      date,
		Time:      clock,
		Type:      models.TypeConsultation,
	}
}

func (f *fixture) patientActor() scheduling.Actor {
	return scheduling.Actor{ID: f.patient.ID, Role: scheduling.RolePatient}
}

func (f *fixture) doctorActor() scheduling.Actor {
	return scheduling.Actor{ID: f.doctor.ID, Role: scheduling.RoleDoctor}
}

func newID() uuid.UUID { return uuid.New() }

// frozenSweep serves sweep candidates from a snapshot taken earlier.
type frozenSweep struct {
	*memstore.Store
	candidates []models.Appointment
}

func (s frozenSweep) FindSweepCandidates(context.Context, scheduling.SweepFilter) ([]models.Appointment, error) {
	return s.candidates, nil
}
