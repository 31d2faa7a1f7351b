package scheduling_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invalidations struct{ doctors []uuid.UUID }

func (i *invalidations) InvalidateDoctor(_ context.Context, id uuid.UUID) {
	i.doctors = append(i.doctors, id)
}

func newManager(f *fixture) (*scheduling.ScheduleManager, *invalidations) {
	inv := &invalidations{}
	return scheduling.NewScheduleManager(f.store, f.store, inv, zap.NewNop()), inv
}

func TestSetOverrideReplacesDayAndInvalidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, inv := newManager(f)

	_, err := m.SetOverride(ctx, f.doctorActor(), f.doctor.ID, monday,
		[]models.Window{{Start: "18:00", End: "19:00"}}, "evening clinic")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.doctor.ID}, inv.doctors)

	slots, err := f.engine.Availability.GetAvailableSlots(ctx, scheduling.AvailabilityQuery{DoctorID: f.doctor.ID, Date: monday})
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00", "18:30"}, slotTimes(slots))
}

func TestScheduleEditsAreValidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, inv := newManager(f)
	var verr *scheduling.ValidationError

	err := m.SetWeeklyHours(ctx, f.doctorActor(), f.doctor.ID, models.WeeklyHours{
		models.Monday: {Start: "17:00", End: "09:00", IsWorking: true},
		9:             {Start: "09:00", End: "10:00", IsWorking: true},
		models.Friday: {Start: "09:00", End: "12:00", BreakStart: strp("08:00"), BreakEnd: strp("08:30"), IsWorking: true},
	})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)

	_, err = m.SetOverride(ctx, f.doctorActor(), f.doctor.ID, "2025-13-01", nil, "")
	assert.ErrorAs(t, err, &verr)

	_, err = m.AddVacation(ctx, f.doctorActor(), f.doctor.ID, tuesday, monday, "")
	assert.ErrorAs(t, err, &verr)

	_, err = m.SetCenterSchedule(ctx, f.doctorActor(), models.DoctorSchedule{
		DoctorID:  f.doctor.ID,
		CenterID:  f.center.ID,
		DayOfWeek: 7,
		Slots:     models.ScheduleSlots{{Time: "9am"}},
	})
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 2)

	assert.Empty(t, inv.doctors)
}

func TestScheduleEditsRequireOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := newManager(f)

	_, err := m.AddVacation(ctx, scheduling.Actor{ID: newID(), Role: scheduling.RoleDoctor}, f.doctor.ID, monday, monday, "")
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	_, err = m.AddVacation(ctx, f.patientActor(), f.doctor.ID, monday, monday, "")
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	v, err := m.AddVacation(ctx, scheduling.Actor{ID: newID(), Role: scheduling.RoleAdmin}, f.doctor.ID, monday, "", "conference")
	require.NoError(t, err)
	assert.Equal(t, monday, v.EndDate)

	_, err = m.AddVacation(ctx, f.doctorActor(), newID(), monday, monday, "")
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	err = m.AssignCenter(ctx, scheduling.Actor{Role: scheduling.RoleAdmin}, newID(), f.center.ID, true)
	assert.True(t, scheduling.IsNotFound(err))
}

func TestSetCenterScheduleAndAssign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m, _ := newManager(f)

	sched, err := m.SetCenterSchedule(ctx, f.doctorActor(), models.DoctorSchedule{
		DoctorID:    f.doctor.ID,
		CenterID:    f.center.ID,
		DayOfWeek:   models.Monday,
		Slots:       models.ScheduleSlots{{Time: "8:15"}},
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAppointmentMinutes, sched.SlotDuration)
	assert.Equal(t, "08:15", sched.Slots[0].Time)

	require.NoError(t, m.AssignCenter(ctx, f.doctorActor(), f.doctor.ID, f.center.ID, true))
	assigned := f.store.Assignments(f.doctor.ID)
	require.Len(t, assigned, 1)
	assert.True(t, assigned[0].IsPrimary)
}
