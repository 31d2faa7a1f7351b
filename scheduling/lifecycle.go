package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"go.uber.org/zap"
)

// AbsentReason is the cancellation reason written by the absence sweep.
const AbsentReason = "absent"

// LifecycleManager drives appointment status changes through the single
// transition table in models.
type LifecycleManager struct {
	appointments AppointmentRepository
	clock        Clock
	observer     Observer
	records      MedicalRecordHook
	log          *zap.Logger
}

func NewLifecycleManager(
	appointments AppointmentRepository,
	clock Clock,
	observer Observer,
	records MedicalRecordHook,
	log *zap.Logger,
) *LifecycleManager {
	if observer == nil {
		observer = Observers{}
	}
	return &LifecycleManager{
		appointments: appointments,
		clock:        clock,
		observer:     observer,
		records:      records,
		log:          log,
	}
}

// Confirm moves a scheduled appointment to confirmed.
func (m *LifecycleManager) Confirm(ctx context.Context, id uuid.UUID, actor Actor) (*models.Appointment, error) {
	return m.transition(ctx, id, actor, models.StatusConfirmed, EventConfirmed, nil)
}

// Start marks a confirmed appointment as in progress.
func (m *LifecycleManager) Start(ctx context.Context, id uuid.UUID, actor Actor) (*models.Appointment, error) {
	return m.transition(ctx, id, actor, models.StatusInProgress, EventStarted, nil)
}

// Complete closes a confirmed or in-progress appointment and hands the
// clinical outcome to the medical record hook, if one is configured. A hook
// failure is logged; the completion stands.
func (m *LifecycleManager) Complete(ctx context.Context, id uuid.UUID, actor Actor, rec CompletionRecord) (*models.Appointment, error) {
	apt, err := m.transition(ctx, id, actor, models.StatusCompleted, EventCompleted, nil)
	if err != nil {
		return nil, err
	}
	if m.records != nil && (rec.Diagnosis != "" || rec.Prescription != "") {
		if err := m.records.RecordCompletion(ctx, *apt, rec); err != nil {
			m.log.Error("medical record hook failed",
				zap.String("appointment_id", apt.ID.String()),
				zap.Error(err),
			)
		}
	}
	return apt, nil
}

// MarkNoShow records that the patient did not attend. Only valid once the
// appointment's start time has passed.
func (m *LifecycleManager) MarkNoShow(ctx context.Context, id uuid.UUID, actor Actor) (*models.Appointment, error) {
	return m.transition(ctx, id, actor, models.StatusNoShow, EventNoShow, func(apt *models.Appointment) error {
		start, err := At(apt.Date, apt.Time, m.clock.Now().Location())
		if err != nil {
			return fmt.Errorf("appointment %s has a malformed slot: %w", apt.ID, err)
		}
		if m.clock.Now().Before(start) {
			return policy(CodeAppointmentNotStarted, "appointment has not started yet")
		}
		return nil
	})
}

// Transition dispatches a requested target status. Cancellation is not
// handled here; it goes through the booking cancellation policy.
func (m *LifecycleManager) Transition(ctx context.Context, id uuid.UUID, actor Actor, to models.AppointmentStatus, rec CompletionRecord) (*models.Appointment, error) {
	switch to {
	case models.StatusConfirmed:
		return m.Confirm(ctx, id, actor)
	case models.StatusInProgress:
		return m.Start(ctx, id, actor)
	case models.StatusCompleted:
		return m.Complete(ctx, id, actor, rec)
	case models.StatusNoShow:
		return m.MarkNoShow(ctx, id, actor)
	}
	if !to.Valid() {
		return nil, &ValidationError{Fields: []string{fmt.Sprintf("unknown status %q", to)}}
	}
	return nil, policy(CodeInvalidTransition, "cannot transition to %s directly", to)
}

func (m *LifecycleManager) transition(
	ctx context.Context,
	id uuid.UUID,
	actor Actor,
	to models.AppointmentStatus,
	kind EventKind,
	guard func(*models.Appointment) error,
) (*models.Appointment, error) {
	apt, err := m.appointments.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading appointment: %w", err)
	}
	if apt == nil {
		return nil, &NotFoundError{Resource: "appointment", ID: id.String()}
	}
	if err := authorize(actor, apt); err != nil {
		return nil, err
	}

	from := apt.Status
	if err := apt.TransitionTo(to); err != nil {
		return nil, policy(CodeInvalidTransition, "%v", err)
	}
	if guard != nil {
		if err := guard(apt); err != nil {
			return nil, err
		}
	}

	updated, err := m.appointments.Update(ctx, id, AppointmentPatch{Status: &to, ExpectStatus: &from})
	if err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	m.log.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_role", actor.Role),
	)
	m.observer.AppointmentChanged(ctx, Event{Kind: kind, Appointment: *updated})
	return updated, nil
}

// MarkPastAsAbsent cancels, with reason "absent", every scheduled or
// confirmed appointment matching the filters whose start lies before now.
// Already processed rows are not candidates, so repeated sweeps are no-ops.
// The batch write is all or nothing: on failure it reports zero updates.
func (m *LifecycleManager) MarkPastAsAbsent(ctx context.Context, doctorID, patientID *uuid.UUID) (int64, error) {
	now := m.clock.Now()
	candidates, err := m.appointments.FindSweepCandidates(ctx, SweepFilter{
		DoctorID:   doctorID,
		PatientID:  patientID,
		OnOrBefore: now.Format(DateLayout),
	})
	if err != nil {
		return 0, fmt.Errorf("loading sweep candidates: %w", err)
	}

	var (
		ids  []uuid.UUID
		past []models.Appointment
	)
	for _, apt := range candidates {
		if apt.Status != models.StatusScheduled && apt.Status != models.StatusConfirmed {
			continue
		}
		start, err := At(apt.Date, apt.Time, now.Location())
		if err != nil {
			m.log.Warn("skipping appointment with malformed slot",
				zap.String("appointment_id", apt.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if start.Before(now) {
			ids = append(ids, apt.ID)
			past = append(past, apt)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	changed, err := m.appointments.CancelMany(ctx, ids, AbsentReason)
	if err != nil {
		m.log.Error("absence sweep failed", zap.Int("candidates", len(ids)), zap.Error(err))
		return 0, fmt.Errorf("marking appointments absent: %w", err)
	}

	m.log.Info("absence sweep completed", zap.Int("updated", len(changed)), zap.Int("candidates", len(ids)))
	// Rows that changed status since the candidate read were left alone.
	done := make(map[uuid.UUID]struct{}, len(changed))
	for _, id := range changed {
		done[id] = struct{}{}
	}
	reason := AbsentReason
	for _, apt := range past {
		if _, ok := done[apt.ID]; !ok {
			continue
		}
		apt.Status = models.StatusCancelled
		apt.CancellationReason = &reason
		m.observer.AppointmentChanged(ctx, Event{Kind: EventAbsent, Appointment: apt})
	}
	return int64(len(changed)), nil
}
