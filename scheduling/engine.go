package scheduling

import (
	"time"

	"go.uber.org/zap"
)

// Deps are the collaborators the engine runs against.
type Deps struct {
	Appointments   AppointmentRepository
	Schedules      ScheduleRepository
	Patients       PatientRepository
	ScheduleWriter ScheduleWriter
	Invalidator    Invalidator
	Clock          Clock
	Observer       Observer
	MedicalRecords MedicalRecordHook
	Log            *zap.Logger
}

// Policy holds the tunable scheduling rules.
type Policy struct {
	DefaultSlotMinutes int
	CancellationWindow time.Duration
}

// Engine wires the availability, booking and lifecycle services together.
type Engine struct {
	Availability *AvailabilityService
	Booking      *BookingService
	Lifecycle    *LifecycleManager
	// Schedules is nil when Deps carries no ScheduleWriter.
	Schedules *ScheduleManager
}

func NewEngine(d Deps, p Policy) *Engine {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	resolver := NewAvailabilityResolver(d.Schedules, p.DefaultSlotMinutes)
	availability := NewAvailabilityService(d.Schedules, resolver, NewConflictChecker(d.Appointments), d.Clock)
	e := &Engine{
		Availability: availability,
		Booking: NewBookingService(d.Appointments, d.Schedules, d.Patients, availability,
			d.Clock, d.Observer, p.CancellationWindow, d.Log.Named("booking")),
		Lifecycle: NewLifecycleManager(d.Appointments, d.Clock, d.Observer, d.MedicalRecords, d.Log.Named("lifecycle")),
	}
	if d.ScheduleWriter != nil {
		e.Schedules = NewScheduleManager(d.Schedules, d.ScheduleWriter, d.Invalidator, d.Log.Named("schedules"))
	}
	return e
}
