package utils

import (
	"fmt"
	"time"
)

// LoadLocation resolves the clinic timezone. Appointment dates and times are
// wall-clock values in this location.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}
