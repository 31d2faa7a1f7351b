package scheduling

import "time"

// Clock is the source of "now" for every time-relative decision. Appointment
// dates and times are interpreted in the location of the time it returns.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed clinic location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
