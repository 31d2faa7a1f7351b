package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
)

// AvailabilityQuery identifies the day a caller wants slots for.
type AvailabilityQuery struct {
	DoctorID  uuid.UUID
	CenterID  *uuid.UUID
	Date      string
	VisitKind models.VisitKind
}

// AvailabilityService answers "which slots does this doctor have on this
// date". Results are snapshots; the booking write path re-validates.
type AvailabilityService struct {
	schedules ScheduleRepository
	resolver  *AvailabilityResolver
	generator SlotGenerator
	conflicts *ConflictChecker
	clock     Clock
}

func NewAvailabilityService(
	schedules ScheduleRepository,
	resolver *AvailabilityResolver,
	conflicts *ConflictChecker,
	clock Clock,
) *AvailabilityService {
	return &AvailabilityService{
		schedules: schedules,
		resolver:  resolver,
		conflicts: conflicts,
		clock:     clock,
	}
}

// GetAvailableSlots returns every candidate slot of the day, booked ones
// included and annotated.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, q AvailabilityQuery) ([]Slot, error) {
	return s.slots(ctx, q, nil)
}

func (s *AvailabilityService) slots(ctx context.Context, q AvailabilityQuery, exclude *uuid.UUID) ([]Slot, error) {
	verr := &ValidationError{}
	if q.DoctorID == uuid.Nil {
		verr.add("doctorId is required")
	}
	if q.VisitKind == "" {
		q.VisitKind = models.VisitClinic
	}
	if !q.VisitKind.Valid() {
		verr.add("visitKind must be clinic or home")
	}
	day, err := ParseDate(q.Date, s.clock.Now().Location())
	if err != nil {
		verr.add("%v", err)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	centerID := q.CenterID
	if q.VisitKind == models.VisitHome {
		doctor, err := s.schedules.GetDoctor(ctx, q.DoctorID)
		if err != nil {
			return nil, err
		}
		if !doctor.HomeVisitsAvailable {
			return []Slot{}, nil
		}
		// Home visits resolve against weekly hours only.
		centerID = nil
	} else if centerID != nil {
		if _, err := s.schedules.GetCenter(ctx, *centerID); err != nil {
			return nil, err
		}
	}

	src, err := s.resolver.Resolve(ctx, q.DoctorID, centerID, day)
	if err != nil {
		return nil, err
	}
	if src.Empty() {
		return []Slot{}, nil
	}

	candidates, err := s.generator.Expand(src)
	if err != nil {
		return nil, fmt.Errorf("expanding %s availability: %w", src.Kind, err)
	}
	return s.conflicts.Annotate(ctx, q.DoctorID, day.Format(DateLayout), candidates, exclude)
}
