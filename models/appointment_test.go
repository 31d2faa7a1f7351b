package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusScheduled:  {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow},
		StatusInProgress: {StatusCompleted},
	}
	all := []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	for _, s := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.True(t, s.Terminal(), s)
		assert.False(t, s.Active(), s)
	}
	assert.ElementsMatch(t, []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusInProgress}, ActiveStatuses())
	assert.False(t, AppointmentStatus("archived").Valid())
}

func TestTransitionTo(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}

	require.Error(t, a.TransitionTo(StatusCompleted))
	assert.Equal(t, StatusScheduled, a.Status)

	require.NoError(t, a.TransitionTo(StatusConfirmed))
	require.NoError(t, a.TransitionTo(StatusNoShow))

	err := a.TransitionTo(StatusConfirmed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transitions allowed from no_show")
}

func TestSyncSpanAndOverlap(t *testing.T) {
	a := &Appointment{Date: "2025-03-10", Time: "10:00", Duration: 45}
	require.NoError(t, a.SyncSpan())
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), a.StartsAt)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 45, 0, 0, time.UTC), a.EndsAt)

	b := &Appointment{Date: "2025-03-10", Time: "10:30"}
	require.NoError(t, b.SyncSpan())
	assert.Equal(t, 30*time.Minute, b.EndsAt.Sub(b.StartsAt))
	assert.True(t, a.Overlaps(b))

	c := &Appointment{Date: "2025-03-10", Time: "10:45", Duration: 15}
	require.NoError(t, c.SyncSpan())
	assert.False(t, a.Overlaps(c))

	bad := &Appointment{Date: "2025-03-10", Time: "late"}
	assert.Error(t, bad.SyncSpan())
}

func TestWeeklyHoursColumn(t *testing.T) {
	var wh WeeklyHours
	require.NoError(t, wh.Scan([]byte(`{"1":{"start":"09:00","end":"17:00","break_start":"12:00","break_end":"13:00","is_working":true},"0":{"start":"","end":"","is_working":false}}`)))

	mon, ok := wh.For(Monday)
	require.True(t, ok)
	assert.Equal(t, "09:00", mon.Start)
	assert.True(t, mon.Window().HasBreak())

	_, ok = wh.For(Sunday)
	assert.False(t, ok)
	_, ok = wh.For(Tuesday)
	assert.False(t, ok)

	assert.Error(t, wh.Scan(42))
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, Monday, DayOf(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Sunday, DayOf(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)))
	assert.False(t, DayOfWeek(7).Valid())
}
