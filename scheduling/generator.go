package scheduling

import (
	"fmt"
	"sort"

	"github.com/meinhoongagan/clinic-booking/models"
)

// Slot is a candidate bookable interval on a date.
type Slot struct {
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	IsAvailable bool   `json:"isAvailable"`
	IsBooked    bool   `json:"isBooked"`
}

func (s Slot) interval() (interval, error) {
	start, err := ParseClock(s.Time)
	if err != nil {
		return interval{}, err
	}
	return interval{start: start, end: start + s.Duration}, nil
}

// SlotGenerator expands working windows into fixed-duration slots.
type SlotGenerator struct{}

// Generate steps by duration from w.Start while the slot still ends at or
// before w.End, dropping slots that intersect [BreakStart, BreakEnd).
func (SlotGenerator) Generate(w models.Window, duration int) ([]Slot, error) {
	if duration <= 0 {
		return nil, ErrInvalidSlotDuration
	}
	start, err := ParseClock(w.Start)
	if err != nil {
		return nil, fmt.Errorf("window start: %w", err)
	}
	end, err := ParseClock(w.End)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}
	if start >= end {
		return []Slot{}, nil
	}

	var pause *interval
	if w.HasBreak() {
		bs, err := ParseClock(*w.BreakStart)
		if err != nil {
			return nil, fmt.Errorf("break start: %w", err)
		}
		be, err := ParseClock(*w.BreakEnd)
		if err != nil {
			return nil, fmt.Errorf("break end: %w", err)
		}
		if bs < be {
			pause = &interval{start: bs, end: be}
		}
	}

	slots := make([]Slot, 0, (end-start)/duration)
	for cur := start; cur+duration <= end; cur += duration {
		iv := interval{start: cur, end: cur + duration}
		if pause != nil && iv.overlaps(*pause) {
			continue
		}
		slots = append(slots, Slot{Time: FormatClock(cur), Duration: duration, IsAvailable: true})
	}
	return slots, nil
}

// Expand turns a resolved source into its ordered candidate slots. Explicit
// slot lists are used as-is; windows go through Generate. Duplicate start
// times keep their first occurrence.
func (g SlotGenerator) Expand(src AvailabilitySource) ([]Slot, error) {
	var out []Slot
	switch src.Kind {
	case SourceExplicit:
		for _, es := range src.Slots {
			t, err := CanonicalTime(es.Time)
			if err != nil {
				return nil, fmt.Errorf("explicit slot: %w", err)
			}
			d := es.Duration
			if d <= 0 {
				d = src.SlotMinutes
			}
			if d <= 0 {
				return nil, ErrInvalidSlotDuration
			}
			out = append(out, Slot{Time: t, Duration: d, IsAvailable: true})
		}
	case SourceWeekly, SourceOverride:
		for _, w := range src.Windows {
			slots, err := g.Generate(w, src.SlotMinutes)
			if err != nil {
				return nil, err
			}
			out = append(out, slots...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	deduped := make([]Slot, 0, len(out))
	for i, s := range out {
		if i > 0 && s.Time == out[i-1].Time {
			continue
		}
		deduped = append(deduped, s)
	}
	return deduped, nil
}
