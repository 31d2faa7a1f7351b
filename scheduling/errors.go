package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// Policy violation codes surfaced to API callers.
const (
	CodeOutsideAvailability   = "OUTSIDE_AVAILABILITY"
	CodeAlreadyCancelled      = "ALREADY_CANCELLED"
	CodeAppointmentInPast     = "APPOINTMENT_IN_PAST"
	CodeCancellationTooLate   = "CANCELLATION_TOO_LATE"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeNotReschedulable      = "NOT_RESCHEDULABLE"
	CodeHomeVisitsUnavailable = "HOME_VISITS_UNAVAILABLE"
	CodeAppointmentNotStarted = "APPOINTMENT_NOT_STARTED"
)

var (
	ErrForbidden           = errors.New("forbidden: appointment belongs to another user")
	ErrInvalidSlotDuration = errors.New("slot duration must be positive")
)

// ValidationError reports missing or malformed request fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, args...))
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NotFoundError reports a missing doctor, patient, center or appointment.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError reports a double booking detected at write time.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message == "" {
		return "doctor already booked at this time"
	}
	return e.Message
}

// PolicyViolation reports a business rule blocking an otherwise valid request.
type PolicyViolation struct {
	Code    string
	Message string
}

func (e *PolicyViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func policy(code, format string, args ...interface{}) *PolicyViolation {
	return &PolicyViolation{Code: code, Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// PolicyCode returns the code of a wrapped PolicyViolation, or "".
func PolicyCode(err error) string {
	var pv *PolicyViolation
	if errors.As(err, &pv) {
		return pv.Code
	}
	return ""
}
