package scheduling_test

import (
	"context"
	"sync"
	"testing"

	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	apt, err := f.engine.Booking.CreateBooking(context.Background(), scheduling.BookingRequest{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		CenterID:  &f.center.ID,
		Date:      monday,
		Time:      "10:00:00",
		Type:      models.TypeFollowUp,
		Notes:     "bring reports",
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusScheduled, apt.Status)
	assert.Equal(t, "10:00", apt.Time)
	assert.Equal(t, models.DefaultAppointmentMinutes, apt.Duration)
	assert.Equal(t, models.VisitClinic, apt.VisitKind)
	assert.Equal(t, 500.0, apt.Fee)
	assert.Equal(t, []scheduling.EventKind{scheduling.EventBooked}, f.events.kinds())

	stored, err := f.store.FindByID(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.ID, stored.ID)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	req := scheduling.BookingRequest{Time: "25:00", Duration: -5, Type: "checkup"}

	_, err := f.engine.Booking.CreateBooking(context.Background(), req)
	var verr *scheduling.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Fields), 5)
}

func TestCreateBookingUnknownParties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.request(monday, "10:00")
	req.DoctorID = newID()
	_, err := f.engine.Booking.CreateBooking(ctx, req)
	assert.True(t, scheduling.IsNotFound(err))

	req = f.request(monday, "10:00")
	req.PatientID = newID()
	_, err = f.engine.Booking.CreateBooking(ctx, req)
	assert.True(t, scheduling.IsNotFound(err))
}

func TestCreateBookingOutsideAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, tc := range []struct{ date, clock string }{
		{monday, "12:00"},   // lunch
		{monday, "10:15"},   // not on the grid
		{monday, "17:00"},   // end of day
		{saturday, "10:00"}, // not working
	} {
		_, err := f.engine.Booking.CreateBooking(ctx, f.request(tc.date, tc.clock))
		assert.Equal(t, scheduling.CodeOutsideAvailability, scheduling.PolicyCode(err), tc)
	}
}

func TestCreateBookingRejectsTakenSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.book(t, monday, "10:00")

	_, err := f.engine.Booking.CreateBooking(ctx, f.request(monday, "10:00"))
	assert.True(t, scheduling.IsConflict(err))
	assert.Contains(t, f.events.kinds(), scheduling.EventConflict)

	// A longer booking starting on a free slot but running into a taken one.
	req := f.request(monday, "09:30")
	req.Duration = 60
	_, err = f.engine.Booking.CreateBooking(ctx, req)
	assert.True(t, scheduling.IsConflict(err))
}

func TestCreateBookingDurationMustFitAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, tc := range []struct {
		clock    string
		duration int
	}{
		{"11:30", 120}, // runs through lunch
		{"11:30", 60},  // ends inside lunch
		{"16:30", 60},  // past the end of day
		{"16:30", 480}, // past midnight
	} {
		req := f.request(monday, tc.clock)
		req.Duration = tc.duration
		_, err := f.engine.Booking.CreateBooking(ctx, req)
		assert.Equal(t, scheduling.CodeOutsideAvailability, scheduling.PolicyCode(err), tc)
	}
	assert.Empty(t, f.events.kinds())

	appts, err := f.store.FindByDoctorAndDate(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	assert.Empty(t, appts)

	req := f.request(monday, "09:00")
	req.Duration = 90
	apt, err := f.engine.Booking.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 90, apt.Duration)

	req = f.request(monday, "13:00")
	req.Duration = 240
	_, err = f.engine.Booking.CreateBooking(ctx, req)
	require.NoError(t, err)
}

func TestRescheduleDurationMustFitAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(monday, "09:00")
	req.Duration = 60
	apt, err := f.engine.Booking.CreateBooking(ctx, req)
	require.NoError(t, err)

	_, err = f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: apt.ID, Date: monday, Time: "16:30", Actor: f.patientActor(),
	})
	assert.Equal(t, scheduling.CodeOutsideAvailability, scheduling.PolicyCode(err))
	assert.Equal(t, "09:00", mustFind(t, f, apt.ID).Time)
}

func TestCreateBookingInThePast(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(f.at(monday, "10:10"))

	_, err := f.engine.Booking.CreateBooking(context.Background(), f.request(monday, "10:00"))
	assert.Equal(t, scheduling.CodeAppointmentInPast, scheduling.PolicyCode(err))
}

func TestCreateHomeVisit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := f.request(monday, "10:00")
	req.VisitKind = models.VisitHome
	req.CenterID = &f.center.ID
	_, err := f.engine.Booking.CreateBooking(ctx, req)
	assert.Equal(t, scheduling.CodeHomeVisitsUnavailable, scheduling.PolicyCode(err))

	f.doctor.HomeVisitsAvailable = true
	f.store.SaveDoctor(f.doctor)
	apt, err := f.engine.Booking.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Nil(t, apt.CenterID)
	assert.Equal(t, models.VisitHome, apt.VisitKind)
}

func TestConcurrentBookingsOfOneSlot(t *testing.T) {
	f := newFixture(t)
	const racers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Booking.CreateBooking(context.Background(), f.request(monday, "11:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case scheduling.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, conflicts)

	appts, err := f.store.FindByDoctorAndDate(context.Background(), f.doctor.ID, monday)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestInsertRejectsOverlapMissedByStaleRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.book(t, monday, "11:00")

	stale := f.engineOver(staleReads{f.store})
	slots, err := stale.Availability.GetAvailableSlots(ctx, scheduling.AvailabilityQuery{DoctorID: f.doctor.ID, Date: monday})
	require.NoError(t, err)
	require.True(t, findSlot(t, slots, "11:00").IsAvailable)

	req := f.request(monday, "11:00")
	req.PatientID = f.store.SavePatient(models.Patient{Name: "Ravi"}).ID
	_, err = stale.Booking.CreateBooking(ctx, req)
	require.Error(t, err)
	assert.True(t, scheduling.IsConflict(err))
	assert.Equal(t, []scheduling.EventKind{scheduling.EventBooked, scheduling.EventConflict}, f.events.kinds())

	appts, err := f.store.FindByDoctorAndDate(ctx, f.doctor.ID, monday)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, first.ID, appts[0].ID)
}

func TestRescheduleExcludesItself(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	req := f.request(monday, "10:00")
	req.Duration = 60
	apt, err := f.engine.Booking.CreateBooking(ctx, req)
	require.NoError(t, err)

	// 10:30 overlaps only the appointment being moved.
	moved, err := f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: apt.ID,
		Date:          monday,
		Time:          "10:30",
		Reason:        "running late",
		Actor:         f.patientActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.Time)
	assert.Equal(t, models.StatusScheduled, moved.Status)
	assert.Contains(t, moved.Notes, "Rescheduled from 2025-03-10 10:00: running late")

	kinds := f.events.kinds()
	assert.Equal(t, scheduling.EventRescheduled, kinds[len(kinds)-1])
}

func TestRescheduleRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, monday, "10:00")
	f.book(t, monday, "14:00")

	_, err := f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: a.ID, Date: monday, Time: "14:00", Actor: f.patientActor(),
	})
	assert.True(t, scheduling.IsConflict(err))

	_, err = f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: a.ID, Date: monday, Time: "14:00", Actor: scheduling.Actor{ID: newID(), Role: scheduling.RolePatient},
	})
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	_, err = f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: newID(), Date: monday, Time: "14:00",
	})
	assert.True(t, scheduling.IsNotFound(err))

	_, err = f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: a.ID, Actor: f.patientActor()})
	assert.Equal(t, scheduling.CodeCancellationTooLate, scheduling.PolicyCode(err))

	f.clock.Set(f.at("2025-03-07", "08:00"))
	_, err = f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: a.ID, Actor: f.patientActor()})
	require.NoError(t, err)
	_, err = f.engine.Booking.RescheduleAppointment(ctx, scheduling.RescheduleRequest{
		AppointmentID: a.ID, Date: tuesday, Time: "09:00", Actor: f.patientActor(),
	})
	assert.Equal(t, scheduling.CodeNotReschedulable, scheduling.PolicyCode(err))
}

func TestCancellationWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, tuesday, "10:00")

	// 20 hours before the start.
	f.clock.Set(f.at(monday, "14:00"))
	_, err := f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: apt.ID, Actor: f.patientActor()})
	assert.Equal(t, scheduling.CodeCancellationTooLate, scheduling.PolicyCode(err))

	f.clock.Set(f.at(tuesday, "11:00"))
	_, err = f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: apt.ID, Actor: f.patientActor()})
	assert.Equal(t, scheduling.CodeAppointmentInPast, scheduling.PolicyCode(err))
}

func TestCancelAppointment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	apt := f.book(t, wednesday, "10:00")

	_, err := f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{
		AppointmentID: apt.ID,
		Actor:         scheduling.Actor{ID: newID(), Role: scheduling.RolePatient},
	})
	assert.ErrorIs(t, err, scheduling.ErrForbidden)

	cancelled, err := f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: apt.ID, Actor: f.patientActor()})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "Cancelled by patient", *cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, f.patient.ID, *cancelled.CancelledBy)

	_, err = f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{AppointmentID: apt.ID, Actor: f.patientActor()})
	assert.Equal(t, scheduling.CodeAlreadyCancelled, scheduling.PolicyCode(err))

	// The slot is free again.
	f.book(t, wednesday, "10:00")
}

func TestDoctorAndAdminMayCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.book(t, wednesday, "10:00")
	b := f.book(t, wednesday, "11:00")

	got, err := f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{
		AppointmentID: a.ID, Reason: "emergency surgery", Actor: f.doctorActor(),
	})
	require.NoError(t, err)
	assert.Equal(t, "emergency surgery", *got.CancellationReason)

	got, err = f.engine.Booking.CancelAppointment(ctx, scheduling.CancelRequest{
		AppointmentID: b.ID, Actor: scheduling.Actor{ID: newID(), Role: scheduling.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by administrator", *got.CancellationReason)
}
