package scheduling_test

import (
	"testing"

	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSkipsBreak(t *testing.T) {
	w := models.Window{Start: "09:00", End: "17:00", BreakStart: strp("12:00"), BreakEnd: strp("13:00")}

	slots, err := scheduling.SlotGenerator{}.Generate(w, 30)
	require.NoError(t, err)

	// 16 half-hour steps, minus the two inside lunch.
	require.Len(t, slots, 14)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "16:30", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.NotContains(t, []string{"12:00", "12:30"}, s.Time)
		assert.Equal(t, 30, s.Duration)
		assert.True(t, s.IsAvailable)
		assert.False(t, s.IsBooked)
	}
}

func TestGenerateDropsSlotsStraddlingBreakOrEnd(t *testing.T) {
	w := models.Window{Start: "09:00", End: "11:00", BreakStart: strp("09:50"), BreakEnd: strp("10:10")}

	slots, err := scheduling.SlotGenerator{}.Generate(w, 45)
	require.NoError(t, err)

	// 09:00-09:45 fits; 09:45-10:30 hits the break; 10:30-11:15 runs past end.
	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].Time)
}

func TestGenerateEmptyWindow(t *testing.T) {
	for _, w := range []models.Window{
		{Start: "10:00", End: "10:00"},
		{Start: "12:00", End: "09:00"},
	} {
		slots, err := scheduling.SlotGenerator{}.Generate(w, 30)
		require.NoError(t, err)
		assert.Empty(t, slots)
	}
}

func TestGenerateRejectsNonPositiveDuration(t *testing.T) {
	w := models.Window{Start: "09:00", End: "10:00"}
	for _, d := range []int{0, -15} {
		_, err := scheduling.SlotGenerator{}.Generate(w, d)
		assert.ErrorIs(t, err, scheduling.ErrInvalidSlotDuration)
	}
}

func TestExpandExplicitSlotsSortedAndDeduplicated(t *testing.T) {
	src := scheduling.AvailabilitySource{
		Kind: scheduling.SourceExplicit,
		Slots: []models.ScheduleSlot{
			{Time: "14:00:00"},
			{Time: "09:30", Duration: 20},
			{Time: "14:00", Duration: 15},
		},
		SlotMinutes: 30,
	}

	slots, err := scheduling.SlotGenerator{}.Expand(src)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, scheduling.Slot{Time: "09:30", Duration: 20, IsAvailable: true}, slots[0])
	assert.Equal(t, scheduling.Slot{Time: "14:00", Duration: 30, IsAvailable: true}, slots[1])
}

func TestExpandOverrideWindowsAreMerged(t *testing.T) {
	src := scheduling.AvailabilitySource{
		Kind: scheduling.SourceOverride,
		Windows: []models.Window{
			{Start: "14:00", End: "15:00"},
			{Start: "08:00", End: "09:00"},
		},
		SlotMinutes: 30,
	}

	slots, err := scheduling.SlotGenerator{}.Expand(src)
	require.NoError(t, err)

	var times []string
	for _, s := range slots {
		times = append(times, s.Time)
	}
	assert.Equal(t, []string{"08:00", "08:30", "14:00", "14:30"}, times)
}

func TestCanonicalTime(t *testing.T) {
	cases := map[string]string{
		"09:00":    "09:00",
		"9:05":     "09:05",
		"14:30:00": "14:30",
		"14:30:59": "14:30",
	}
	for in, want := range cases {
		got, err := scheduling.CanonicalTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "24:00", "12:60", "noon", "1:2", "12:00:61"} {
		_, err := scheduling.CanonicalTime(bad)
		assert.Error(t, err, bad)
	}
}
