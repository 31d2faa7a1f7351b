package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"go.uber.org/zap"
)

const (
	DefaultCancellationWindow = 24 * time.Hour
	maxAppointmentMinutes     = 8 * 60
)

type BookingRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	CenterID  *uuid.UUID
	Date      string
	Time      string
	Duration  int
	Type      models.AppointmentType
	VisitKind models.VisitKind
	Notes     string
	// Fee overrides the doctor's consultation fee when set.
	Fee *float64
}

type RescheduleRequest struct {
	AppointmentID uuid.UUID
	Date          string
	Time          string
	Reason        string
	Actor         Actor
}

type CancelRequest struct {
	AppointmentID uuid.UUID
	Reason        string
	Actor         Actor
}

// BookingService owns the write path: create, reschedule and cancel. The
// availability read it performs first is advisory; the repository's overlap
// guarantee is what keeps two requests from taking the same slot.
type BookingService struct {
	appointments       AppointmentRepository
	schedules          ScheduleRepository
	patients           PatientRepository
	availability       *AvailabilityService
	conflicts          *ConflictChecker
	clock              Clock
	observer           Observer
	cancellationWindow time.Duration
	log                *zap.Logger
}

func NewBookingService(
	appointments AppointmentRepository,
	schedules ScheduleRepository,
	patients PatientRepository,
	availability *AvailabilityService,
	clock Clock,
	observer Observer,
	cancellationWindow time.Duration,
	log *zap.Logger,
) *BookingService {
	if cancellationWindow <= 0 {
		cancellationWindow = DefaultCancellationWindow
	}
	if observer == nil {
		observer = Observers{}
	}
	return &BookingService{
		appointments:       appointments,
		schedules:          schedules,
		patients:           patients,
		availability:       availability,
		conflicts:          NewConflictChecker(appointments),
		clock:              clock,
		observer:           observer,
		cancellationWindow: cancellationWindow,
		log:                log,
	}
}

func (r *BookingRequest) normalize() error {
	verr := &ValidationError{}
	if r.DoctorID == uuid.Nil {
		verr.add("doctorId is required")
	}
	if r.PatientID == uuid.Nil {
		verr.add("patientId is required")
	}
	if strings.TrimSpace(r.Date) == "" {
		verr.add("date is required")
	}
	if strings.TrimSpace(r.Time) == "" {
		verr.add("time is required")
	} else if t, err := CanonicalTime(r.Time); err != nil {
		verr.add("%v", err)
	} else {
		r.Time = t
	}
	if r.Duration == 0 {
		r.Duration = models.DefaultAppointmentMinutes
	}
	if r.Duration < 0 || r.Duration > maxAppointmentMinutes {
		verr.add("duration must be between 1 and %d minutes", maxAppointmentMinutes)
	}
	if !r.Type.Valid() {
		verr.add("type must be one of consultation, follow_up, emergency, routine")
	}
	if r.VisitKind == "" {
		r.VisitKind = models.VisitClinic
	}
	if !r.VisitKind.Valid() {
		verr.add("visitKind must be clinic or home")
	}
	return verr.orNil()
}

// CreateBooking validates the request, pre-checks the slot and inserts a
// scheduled appointment.
func (s *BookingService) CreateBooking(ctx context.Context, req BookingRequest) (*models.Appointment, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	doctor, err := s.schedules.GetDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.GetPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if req.VisitKind == models.VisitHome {
		if !doctor.HomeVisitsAvailable {
			return nil, policy(CodeHomeVisitsUnavailable, "doctor does not offer home visits")
		}
		req.CenterID = nil
	}

	if err := s.ensureFuture(req.Date, req.Time); err != nil {
		return nil, err
	}

	q := AvailabilityQuery{DoctorID: req.DoctorID, CenterID: req.CenterID, Date: req.Date, VisitKind: req.VisitKind}
	fee := doctor.ConsultationFee
	if req.Fee != nil {
		fee = *req.Fee
	}
	apt := &models.Appointment{
		ID:        uuid.New(),
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		CenterID:  req.CenterID,
		Date:      req.Date,
		Time:      req.Time,
		Duration:  req.Duration,
		Type:      req.Type,
		VisitKind: req.VisitKind,
		Status:    models.StatusScheduled,
		Notes:     req.Notes,
		Fee:       fee,
	}

	if err := s.checkSlot(ctx, q, req.Time, req.Duration, nil); err != nil {
		s.reportConflict(ctx, err, *apt)
		return nil, err
	}

	created, err := s.appointments.Insert(ctx, apt)
	if err != nil {
		s.reportConflict(ctx, err, *apt)
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.log.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("doctor_id", created.DoctorID.String()),
		zap.String("date", created.Date),
		zap.String("time", created.Time),
		zap.String("visit_kind", string(created.VisitKind)),
	)
	s.observer.AppointmentChanged(ctx, Event{Kind: EventBooked, Appointment: *created})
	return created, nil
}

// RescheduleAppointment moves an appointment to a new date and time, keeping
// its status. The appointment's current slot does not count against itself.
func (s *BookingService) RescheduleAppointment(ctx context.Context, req RescheduleRequest) (*models.Appointment, error) {
	verr := &ValidationError{}
	if req.AppointmentID == uuid.Nil {
		verr.add("appointmentId is required")
	}
	if strings.TrimSpace(req.Date) == "" {
		verr.add("date is required")
	}
	if t, err := CanonicalTime(req.Time); err != nil {
		verr.add("%v", err)
	} else {
		req.Time = t
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	apt, err := s.load(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(req.Actor, apt); err != nil {
		return nil, err
	}
	if !apt.Status.Active() || apt.Status == models.StatusInProgress {
		return nil, policy(CodeNotReschedulable, "a %s appointment cannot be rescheduled", apt.Status)
	}
	if err := s.ensureFuture(req.Date, req.Time); err != nil {
		return nil, err
	}

	q := AvailabilityQuery{DoctorID: apt.DoctorID, CenterID: apt.CenterID, Date: req.Date, VisitKind: apt.VisitKind}
	if err := s.checkSlot(ctx, q, req.Time, apt.Duration, &apt.ID); err != nil {
		s.reportConflict(ctx, err, *apt)
		return nil, err
	}

	prevDate, prevTime := apt.Date, apt.Time
	notes := apt.Notes
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		line := fmt.Sprintf("Rescheduled from %s %s: %s", prevDate, prevTime, reason)
		if notes == "" {
			notes = line
		} else {
			notes = notes + "\n" + line
		}
	}
	status := apt.Status
	updated, err := s.appointments.Update(ctx, apt.ID, AppointmentPatch{
		Date:         &req.Date,
		Time:         &req.Time,
		Notes:        &notes,
		ExpectStatus: &status,
	})
	if err != nil {
		s.reportConflict(ctx, err, *apt)
		return nil, fmt.Errorf("rescheduling appointment: %w", err)
	}

	s.log.Info("appointment rescheduled",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("from", prevDate+" "+prevTime),
		zap.String("to", updated.Date+" "+updated.Time),
	)
	s.observer.AppointmentChanged(ctx, Event{
		Kind:         EventRescheduled,
		Appointment:  *updated,
		PreviousDate: prevDate,
		PreviousTime: prevTime,
	})
	return updated, nil
}

// CancelAppointment applies the patient/doctor cancellation policy: not
// already cancelled, not in the past, and not inside the cancellation window.
func (s *BookingService) CancelAppointment(ctx context.Context, req CancelRequest) (*models.Appointment, error) {
	apt, err := s.load(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if err := authorize(req.Actor, apt); err != nil {
		return nil, err
	}
	if apt.Status == models.StatusCancelled {
		return nil, policy(CodeAlreadyCancelled, "appointment is already cancelled")
	}
	if !models.CanTransition(apt.Status, models.StatusCancelled) {
		return nil, policy(CodeInvalidTransition, "a %s appointment cannot be cancelled", apt.Status)
	}

	start, err := At(apt.Date, apt.Time, s.clock.Now().Location())
	if err != nil {
		return nil, fmt.Errorf("appointment %s has a malformed slot: %w", apt.ID, err)
	}
	hoursUntil := start.Sub(s.clock.Now()).Hours()
	if hoursUntil < 0 {
		return nil, policy(CodeAppointmentInPast, "appointment already started")
	}
	if hoursUntil < s.cancellationWindow.Hours() {
		return nil, policy(CodeCancellationTooLate,
			"appointments can only be cancelled at least %.0f hours in advance", s.cancellationWindow.Hours())
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultCancellationReason(req.Actor)
	}
	cancelled := models.StatusCancelled
	expect := apt.Status
	patch := AppointmentPatch{
		Status:             &cancelled,
		CancellationReason: &reason,
		ExpectStatus:       &expect,
	}
	if req.Actor.ID != uuid.Nil {
		patch.CancelledBy = &req.Actor.ID
	}
	updated, err := s.appointments.Update(ctx, apt.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("cancelling appointment: %w", err)
	}

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", updated.ID.String()),
		zap.String("actor_role", req.Actor.Role),
		zap.Float64("hours_until", hoursUntil),
	)
	s.observer.AppointmentChanged(ctx, Event{Kind: EventCancelled, Appointment: *updated})
	return updated, nil
}

// checkSlot requires time to be one of the day's slots and free for duration
// minutes. A longer booking must run over consecutive slots with no gap, break
// or end of day in between. A slot that exists but is taken is a conflict, not
// a policy error, so racing callers see the same outcome whichever check
// catches them.
func (s *BookingService) checkSlot(ctx context.Context, q AvailabilityQuery, t string, duration int, exclude *uuid.UUID) error {
	slots, err := s.availability.slots(ctx, q, exclude)
	if err != nil {
		return err
	}
	idx := -1
	for i := range slots {
		if slots[i].Time == t {
			idx = i
			break
		}
	}
	if idx < 0 {
		return policy(CodeOutsideAvailability, "outside availability: %s %s is not a bookable slot", q.Date, t)
	}
	match := slots[idx]
	if match.IsBooked {
		return &ConflictError{}
	}
	if duration == match.Duration {
		return nil
	}

	covered, err := coveredUntil(slots[idx:])
	if err != nil {
		return err
	}
	start, err := ParseClock(t)
	if err != nil {
		return err
	}
	if start+duration > covered {
		return policy(CodeOutsideAvailability,
			"outside availability: %d minutes from %s %s runs past the available slots", duration, q.Date, t)
	}
	annotated, err := s.conflicts.Annotate(ctx, q.DoctorID, q.Date, []Slot{{Time: t, Duration: duration}}, exclude)
	if err != nil {
		return err
	}
	if annotated[0].IsBooked {
		return &ConflictError{}
	}
	return nil
}

// coveredUntil returns the minute at which the run of back-to-back slots
// starting at slots[0] ends. slots must be ordered by start time.
func coveredUntil(slots []Slot) (int, error) {
	end := 0
	for i, sl := range slots {
		iv, err := sl.interval()
		if err != nil {
			return 0, fmt.Errorf("slot %q: %w", sl.Time, err)
		}
		if i > 0 && iv.start > end {
			break
		}
		if iv.end > end {
			end = iv.end
		}
	}
	return end, nil
}

func (s *BookingService) ensureFuture(date, clock string) error {
	now := s.clock.Now()
	start, err := At(date, clock, now.Location())
	if err != nil {
		return &ValidationError{Fields: []string{err.Error()}}
	}
	if start.Before(now) {
		return policy(CodeAppointmentInPast, "cannot book a slot in the past")
	}
	return nil
}

func (s *BookingService) load(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	apt, err := s.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	if apt == nil {
		return nil, &NotFoundError{Resource: "appointment", ID: id.String()}
	}
	return apt, nil
}

func (s *BookingService) reportConflict(ctx context.Context, err error, apt models.Appointment) {
	if !IsConflict(err) {
		return
	}
	s.log.Warn("double booking rejected",
		zap.String("doctor_id", apt.DoctorID.String()),
		zap.String("date", apt.Date),
		zap.String("time", apt.Time),
	)
	s.observer.AppointmentChanged(ctx, Event{Kind: EventConflict, Appointment: apt})
}

// authorize lets patients and doctors act only on their own appointments.
// An actor without a role is trusted (internal callers).
func authorize(actor Actor, apt *models.Appointment) error {
	switch actor.Role {
	case RolePatient:
		if actor.ID != apt.PatientID {
			return ErrForbidden
		}
	case RoleDoctor:
		if actor.ID != apt.DoctorID {
			return ErrForbidden
		}
	}
	return nil
}

func defaultCancellationReason(actor Actor) string {
	switch actor.Role {
	case RolePatient:
		return "Cancelled by patient"
	case RoleDoctor:
		return "Cancelled by doctor"
	case RoleAdmin:
		return "Cancelled by administrator"
	}
	return "Cancelled"
}
