package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
)

// ConflictChecker marks candidate slots that overlap a doctor's active
// appointments. It never filters by center: a doctor booked at one center or
// on a home visit is busy everywhere.
type ConflictChecker struct {
	appointments AppointmentRepository
}

func NewConflictChecker(appointments AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{appointments: appointments}
}

// Annotate sets IsBooked/IsAvailable on every slot. The appointment with id
// exclude, if any, is ignored so a reschedule does not collide with itself.
func (c *ConflictChecker) Annotate(ctx context.Context, doctorID uuid.UUID, date string, slots []Slot, exclude *uuid.UUID) ([]Slot, error) {
	busy, err := c.busyIntervals(ctx, doctorID, date, exclude)
	if err != nil {
		return nil, err
	}

	out := make([]Slot, len(slots))
	for i, s := range slots {
		iv, err := s.interval()
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", s.Time, err)
		}
		s.IsBooked = false
		for _, b := range busy {
			if iv.overlaps(b) {
				s.IsBooked = true
				break
			}
		}
		s.IsAvailable = !s.IsBooked
		out[i] = s
	}
	return out, nil
}

func (c *ConflictChecker) busyIntervals(ctx context.Context, doctorID uuid.UUID, date string, exclude *uuid.UUID) ([]interval, error) {
	appts, err := c.appointments.FindByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("loading appointments: %w", err)
	}

	busy := make([]interval, 0, len(appts))
	for _, a := range appts {
		if !a.Status.Active() {
			continue
		}
		if exclude != nil && a.ID == *exclude {
			continue
		}
		start, err := ParseClock(a.Time)
		if err != nil {
			return nil, fmt.Errorf("appointment %s time: %w", a.ID, err)
		}
		d := a.Duration
		if d <= 0 {
			d = models.DefaultAppointmentMinutes
		}
		busy = append(busy, interval{start: start, end: start + d})
	}
	return busy, nil
}
