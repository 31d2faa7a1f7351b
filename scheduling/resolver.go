package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
)

// SourceKind tags which availability source produced a resolution.
type SourceKind int

const (
	SourceNone     SourceKind = iota // doctor not working that weekday
	SourceVacation                   // date blocked by a vacation
	SourceOverride                   // date-specific override
	SourceExplicit                   // per-center explicit slot list
	SourceWeekly                     // recurring weekly hours
)

func (k SourceKind) String() string {
	switch k {
	case SourceVacation:
		return "vacation"
	case SourceOverride:
		return "override"
	case SourceExplicit:
		return "explicit"
	case SourceWeekly:
		return "weekly"
	}
	return "none"
}

// AvailabilitySource is the resolved availability of a doctor for one date.
// Weekly and Override carry Windows to expand; Explicit carries ready slots.
type AvailabilitySource struct {
	Kind    SourceKind
	Windows []models.Window
	Slots   []models.ScheduleSlot
	// SlotMinutes is the generation step for Windows and the fallback
	// duration for explicit slots that carry none.
	SlotMinutes int
}

// Empty reports whether the source yields no candidate slots at all.
func (s AvailabilitySource) Empty() bool {
	return len(s.Windows) == 0 && len(s.Slots) == 0
}

// AvailabilityResolver picks the availability source for a doctor and date.
type AvailabilityResolver struct {
	schedules          ScheduleRepository
	defaultSlotMinutes int
}

func NewAvailabilityResolver(schedules ScheduleRepository, defaultSlotMinutes int) *AvailabilityResolver {
	if defaultSlotMinutes <= 0 {
		defaultSlotMinutes = models.DefaultAppointmentMinutes
	}
	return &AvailabilityResolver{schedules: schedules, defaultSlotMinutes: defaultSlotMinutes}
}

// Resolve applies, first match wins: vacation, date override, explicit
// per-center schedule (only when centerID is set), weekly hours.
func (r *AvailabilityResolver) Resolve(ctx context.Context, doctorID uuid.UUID, centerID *uuid.UUID, day time.Time) (AvailabilitySource, error) {
	weekly, err := r.schedules.GetWeeklyHours(ctx, doctorID)
	if err != nil {
		return AvailabilitySource{}, err
	}
	date := day.Format(DateLayout)

	vacations, err := r.schedules.GetVacationDays(ctx, doctorID)
	if err != nil {
		return AvailabilitySource{}, fmt.Errorf("loading vacation days: %w", err)
	}
	if vacations.Contains(date) {
		return AvailabilitySource{Kind: SourceVacation}, nil
	}

	override, err := r.schedules.GetOverride(ctx, doctorID, date)
	if err != nil {
		return AvailabilitySource{}, fmt.Errorf("loading schedule override: %w", err)
	}
	if override != nil {
		return AvailabilitySource{
			Kind:        SourceOverride,
			Windows:     append([]models.Window(nil), override.Windows...),
			SlotMinutes: r.defaultSlotMinutes,
		}, nil
	}

	dow := models.DayOf(day)
	if centerID != nil {
		sched, err := r.schedules.GetDoctorSchedule(ctx, doctorID, *centerID, dow)
		if err != nil {
			return AvailabilitySource{}, fmt.Errorf("loading doctor schedule: %w", err)
		}
		if sched != nil && sched.IsAvailable {
			step := sched.SlotDuration
			if step <= 0 {
				step = r.defaultSlotMinutes
			}
			return AvailabilitySource{
				Kind:        SourceExplicit,
				Slots:       append([]models.ScheduleSlot(nil), sched.Slots...),
				SlotMinutes: step,
			}, nil
		}
	}

	wh, ok := weekly.For(dow)
	if !ok {
		return AvailabilitySource{Kind: SourceNone}, nil
	}
	return AvailabilitySource{
		Kind:        SourceWeekly,
		Windows:     []models.Window{wh.Window()},
		SlotMinutes: r.defaultSlotMinutes,
	}, nil
}
