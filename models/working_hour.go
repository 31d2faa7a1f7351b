package models

import (
	"database/sql/driver"
	"time"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayOf returns the weekday of t (0 for Sunday ... 6 for Saturday).
func DayOf(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday())
}

func (d DayOfWeek) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// WorkingHours is one weekday entry of a doctor's recurring weekly pattern.
type WorkingHours struct {
	Start      string  `json:"start"`       // Format "HH:MM" in 24h
	End        string  `json:"end"`         // Format "HH:MM" in 24h
	BreakStart *string `json:"break_start"` // Optional break start time
	BreakEnd   *string `json:"break_end"`   // Optional break end time
	IsWorking  bool    `json:"is_working"`
}

// Window converts the entry into a working window.
func (wh WorkingHours) Window() Window {
	return Window{
		Start:      wh.Start,
		End:        wh.End,
		BreakStart: wh.BreakStart,
		BreakEnd:   wh.BreakEnd,
	}
}

// WeeklyHours maps a weekday to its working hours. Stored as JSONB on the doctor row.
type WeeklyHours map[DayOfWeek]WorkingHours

// For returns the entry for day and whether the doctor works that day.
func (w WeeklyHours) For(day DayOfWeek) (WorkingHours, bool) {
	wh, ok := w[day]
	if !ok || !wh.IsWorking {
		return WorkingHours{}, false
	}
	return wh, true
}

// Value implements the driver.Valuer interface
func (w WeeklyHours) Value() (driver.Value, error) {
	if w == nil {
		return jsonValue(map[DayOfWeek]WorkingHours{})
	}
	return jsonValue(map[DayOfWeek]WorkingHours(w))
}

// Scan implements the sql.Scanner interface
func (w *WeeklyHours) Scan(value interface{}) error {
	return scanJSON(value, w, "WeeklyHours")
}

// Window is a time range a doctor is available on a date, with an optional break.
type Window struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`
}

// HasBreak reports whether both break bounds are set.
func (w Window) HasBreak() bool {
	return w.BreakStart != nil && w.BreakEnd != nil
}

// Windows is a JSONB list of working windows.
type Windows []Window

func (w Windows) Value() (driver.Value, error) {
	if w == nil {
		return jsonValue([]Window{})
	}
	return jsonValue([]Window(w))
}

func (w *Windows) Scan(value interface{}) error {
	return scanJSON(value, w, "Windows")
}
