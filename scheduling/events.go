package scheduling

import (
	"context"

	"github.com/meinhoongagan/clinic-booking/models"
)

type EventKind string

const (
	EventBooked      EventKind = "booked"
	EventRescheduled EventKind = "rescheduled"
	EventCancelled   EventKind = "cancelled"
	EventConfirmed   EventKind = "confirmed"
	EventStarted     EventKind = "started"
	EventCompleted   EventKind = "completed"
	EventNoShow      EventKind = "no_show"
	EventAbsent      EventKind = "absent"
	EventConflict    EventKind = "conflict"
)

// Event describes a committed appointment change. PreviousDate and
// PreviousTime are set on reschedules.
type Event struct {
	Kind         EventKind
	Appointment  models.Appointment
	PreviousDate string
	PreviousTime string
}

// Observer receives committed changes and rejected double bookings
// (EventConflict). Implementations must not block.
type Observer interface {
	AppointmentChanged(ctx context.Context, e Event)
}

// Observers fans an event out to each member.
type Observers []Observer

func (o Observers) AppointmentChanged(ctx context.Context, e Event) {
	for _, ob := range o {
		if ob != nil {
			ob.AppointmentChanged(ctx, e)
		}
	}
}

// CompletionRecord carries the clinical outcome handed to the medical record
// collaborator when an appointment completes.
type CompletionRecord struct {
	Diagnosis    string
	Prescription string
}

// MedicalRecordHook creates the medical record for a completed appointment.
type MedicalRecordHook interface {
	RecordCompletion(ctx context.Context, a models.Appointment, rec CompletionRecord) error
}
