package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"go.uber.org/zap"
)

// ScheduleWriter stores the availability sources a doctor manages.
type ScheduleWriter interface {
	SetWeeklyHours(ctx context.Context, doctorID uuid.UUID, hours models.WeeklyHours) error
	UpsertOverride(ctx context.Context, o *models.ScheduleOverride) (*models.ScheduleOverride, error)
	AddVacation(ctx context.Context, v *models.Vacation) (*models.Vacation, error)
	UpsertDoctorSchedule(ctx context.Context, s *models.DoctorSchedule) (*models.DoctorSchedule, error)
	// AssignCenter links a doctor to a center. A primary assignment clears
	// the doctor's previous primary in the same write.
	AssignCenter(ctx context.Context, a models.DoctorCenterAssignment) error
}

// Invalidator drops cached availability of a doctor after a schedule edit.
type Invalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID)
}

// ScheduleManager validates and applies schedule edits.
type ScheduleManager struct {
	schedules   ScheduleRepository
	writer      ScheduleWriter
	invalidator Invalidator
	log         *zap.Logger
}

func NewScheduleManager(schedules ScheduleRepository, writer ScheduleWriter, invalidator Invalidator, log *zap.Logger) *ScheduleManager {
	return &ScheduleManager{schedules: schedules, writer: writer, invalidator: invalidator, log: log}
}

func (m *ScheduleManager) SetWeeklyHours(ctx context.Context, actor Actor, doctorID uuid.UUID, hours models.WeeklyHours) error {
	if err := m.begin(ctx, actor, doctorID); err != nil {
		return err
	}
	verr := &ValidationError{}
	for day, wh := range hours {
		if !day.Valid() {
			verr.add("day %d is not a weekday (0=Sunday..6=Saturday)", day)
			continue
		}
		if wh.IsWorking {
			validateWindow(verr, fmt.Sprintf("day %d", day), wh.Window())
		}
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	if err := m.writer.SetWeeklyHours(ctx, doctorID, hours); err != nil {
		return fmt.Errorf("saving weekly hours: %w", err)
	}
	m.changed(ctx, doctorID, "weekly_hours")
	return nil
}

// SetOverride replaces availability on one date. No windows blocks the day.
func (m *ScheduleManager) SetOverride(ctx context.Context, actor Actor, doctorID uuid.UUID, date string, windows []models.Window, reason string) (*models.ScheduleOverride, error) {
	if err := m.begin(ctx, actor, doctorID); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if _, err := ParseDate(date, nil); err != nil {
		verr.add("%v", err)
	}
	for i, w := range windows {
		validateWindow(verr, fmt.Sprintf("window %d", i), w)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	saved, err := m.writer.UpsertOverride(ctx, &models.ScheduleOverride{
		DoctorID: doctorID,
		Date:     date,
		Windows:  windows,
		Reason:   reason,
	})
	if err != nil {
		return nil, fmt.Errorf("saving schedule override: %w", err)
	}
	m.changed(ctx, doctorID, "override")
	return saved, nil
}

func (m *ScheduleManager) AddVacation(ctx context.Context, actor Actor, doctorID uuid.UUID, start, end, reason string) (*models.Vacation, error) {
	if err := m.begin(ctx, actor, doctorID); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if _, err := ParseDate(start, nil); err != nil {
		verr.add("startDate: %v", err)
	}
	if end == "" {
		end = start
	}
	if _, err := ParseDate(end, nil); err != nil {
		verr.add("endDate: %v", err)
	} else if end < start {
		verr.add("endDate must not be before startDate")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	saved, err := m.writer.AddVacation(ctx, &models.Vacation{
		DoctorID:  doctorID,
		StartDate: start,
		EndDate:   end,
		Reason:    reason,
	})
	if err != nil {
		return nil, fmt.Errorf("saving vacation: %w", err)
	}
	m.changed(ctx, doctorID, "vacation")
	return saved, nil
}

// SetCenterSchedule stores the explicit slot list of a doctor at a center for
// one weekday.
func (m *ScheduleManager) SetCenterSchedule(ctx context.Context, actor Actor, sched models.DoctorSchedule) (*models.DoctorSchedule, error) {
	if err := m.begin(ctx, actor, sched.DoctorID); err != nil {
		return nil, err
	}
	if _, err := m.schedules.GetCenter(ctx, sched.CenterID); err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if !sched.DayOfWeek.Valid() {
		verr.add("dayOfWeek must be between 0 and 6")
	}
	if sched.SlotDuration == 0 {
		sched.SlotDuration = models.DefaultAppointmentMinutes
	}
	if sched.SlotDuration < 0 {
		verr.add("slotDuration must be positive")
	}
	for i := range sched.Slots {
		t, err := CanonicalTime(sched.Slots[i].Time)
		if err != nil {
			verr.add("slot %d: %v", i, err)
			continue
		}
		sched.Slots[i].Time = t
		if sched.Slots[i].Duration < 0 {
			verr.add("slot %d: duration must not be negative", i)
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	saved, err := m.writer.UpsertDoctorSchedule(ctx, &sched)
	if err != nil {
		return nil, fmt.Errorf("saving doctor schedule: %w", err)
	}
	m.changed(ctx, sched.DoctorID, "center_schedule")
	return saved, nil
}

func (m *ScheduleManager) AssignCenter(ctx context.Context, actor Actor, doctorID, centerID uuid.UUID, primary bool) error {
	if err := m.begin(ctx, actor, doctorID); err != nil {
		return err
	}
	if _, err := m.schedules.GetCenter(ctx, centerID); err != nil {
		return err
	}
	err := m.writer.AssignCenter(ctx, models.DoctorCenterAssignment{
		DoctorID:  doctorID,
		CenterID:  centerID,
		IsPrimary: primary,
	})
	if err != nil {
		return fmt.Errorf("assigning center: %w", err)
	}
	m.log.Info("doctor assigned to center",
		zap.String("doctor_id", doctorID.String()),
		zap.String("center_id", centerID.String()),
		zap.Bool("primary", primary),
	)
	return nil
}

// begin checks that actor may edit doctorID's schedule and that the doctor
// exists.
func (m *ScheduleManager) begin(ctx context.Context, actor Actor, doctorID uuid.UUID) error {
	if actor.Role == RoleDoctor && actor.ID != doctorID {
		return ErrForbidden
	}
	if actor.Role == RolePatient {
		return ErrForbidden
	}
	_, err := m.schedules.GetDoctor(ctx, doctorID)
	return err
}

func (m *ScheduleManager) changed(ctx context.Context, doctorID uuid.UUID, what string) {
	m.log.Info("schedule updated", zap.String("doctor_id", doctorID.String()), zap.String("source", what))
	if m.invalidator != nil {
		m.invalidator.InvalidateDoctor(ctx, doctorID)
	}
}

func validateWindow(verr *ValidationError, label string, w models.Window) {
	start, err := ParseClock(w.Start)
	if err != nil {
		verr.add("%s start: %v", label, err)
		return
	}
	end, err := ParseClock(w.End)
	if err != nil {
		verr.add("%s end: %v", label, err)
		return
	}
	if start >= end {
		verr.add("%s: start must be before end", label)
	}
	if (w.BreakStart == nil) != (w.BreakEnd == nil) {
		verr.add("%s: breakStart and breakEnd must be set together", label)
		return
	}
	if !w.HasBreak() {
		return
	}
	bs, err1 := ParseClock(*w.BreakStart)
	be, err2 := ParseClock(*w.BreakEnd)
	if err1 != nil || err2 != nil {
		verr.add("%s: malformed break", label)
		return
	}
	if bs >= be || bs < start || be > end {
		verr.add("%s: break must lie inside the working window", label)
	}
}
