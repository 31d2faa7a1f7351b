package utils

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/clinic-booking/config"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers one HTML email.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends through an SMTP relay with gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

type mailJob struct {
	event scheduling.Event
}

// Mailer notifies patients of appointment changes. Events are queued and sent
// by Run so the booking path never waits on SMTP.
type Mailer struct {
	sender   Sender
	patients scheduling.PatientRepository
	doctors  scheduling.ScheduleRepository
	queue    chan mailJob
	log      *zap.Logger
}

func NewMailer(sender Sender, patients scheduling.PatientRepository, doctors scheduling.ScheduleRepository, log *zap.Logger) *Mailer {
	return &Mailer{
		sender:   sender,
		patients: patients,
		doctors:  doctors,
		queue:    make(chan mailJob, 256),
		log:      log,
	}
}

// AppointmentChanged queues a notification. A full queue drops the mail.
func (m *Mailer) AppointmentChanged(_ context.Context, e scheduling.Event) {
	if subjectFor(e) == "" {
		return
	}
	select {
	case m.queue <- mailJob{event: e}:
	default:
		m.log.Warn("mail queue full, dropping notification",
			zap.String("appointment_id", e.Appointment.ID.String()),
			zap.String("kind", string(e.Kind)),
		)
	}
}

// Run sends queued notifications until ctx is done.
func (m *Mailer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-m.queue:
			if err := m.notify(ctx, job.event); err != nil {
				m.log.Error("sending appointment mail failed",
					zap.String("appointment_id", job.event.Appointment.ID.String()),
					zap.String("kind", string(job.event.Kind)),
					zap.Error(err),
				)
			}
		}
	}
}

func (m *Mailer) notify(ctx context.Context, e scheduling.Event) error {
	patient, doctor, err := m.parties(ctx, e.Appointment)
	if err != nil {
		return err
	}
	return m.sender.Send(patient.Email, subjectFor(e), renderBody(e, patient, doctor))
}

// SendReminder mails the patient about an upcoming appointment.
func (m *Mailer) SendReminder(ctx context.Context, apt models.Appointment) error {
	patient, doctor, err := m.parties(ctx, apt)
	if err != nil {
		return err
	}
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder of your upcoming appointment.</p>
		<ul>
			<li><strong>Doctor:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s</li>
		</ul>
		<p>If you need to reschedule or cancel, please do so at least 24 hours in advance.</p>
	`, patient.Name, doctor.Name, apt.Date, apt.Time)
	return m.sender.Send(patient.Email, "Reminder: upcoming appointment", body)
}

func (m *Mailer) parties(ctx context.Context, apt models.Appointment) (*models.Patient, *models.Doctor, error) {
	patient, err := m.patients.GetPatient(ctx, apt.PatientID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading patient: %w", err)
	}
	if patient.Email == "" {
		return nil, nil, fmt.Errorf("patient %s has no email address", patient.ID)
	}
	doctor, err := m.doctors.GetDoctor(ctx, apt.DoctorID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading doctor: %w", err)
	}
	return patient, doctor, nil
}

func subjectFor(e scheduling.Event) string {
	switch e.Kind {
	case scheduling.EventBooked:
		return "Appointment booked"
	case scheduling.EventConfirmed:
		return "Appointment confirmed"
	case scheduling.EventRescheduled:
		return "Appointment rescheduled"
	case scheduling.EventCancelled:
		return "Appointment cancelled"
	case scheduling.EventAbsent:
		return "Missed appointment"
	}
	return ""
}

func renderBody(e scheduling.Event, patient *models.Patient, doctor *models.Doctor) string {
	a := e.Appointment
	var line string
	switch e.Kind {
	case scheduling.EventBooked:
		line = fmt.Sprintf("Your appointment with %s on %s at %s has been booked.", doctor.Name, a.Date, a.Time)
	case scheduling.EventConfirmed:
		line = fmt.Sprintf("Your appointment with %s on %s at %s is confirmed.", doctor.Name, a.Date, a.Time)
	case scheduling.EventRescheduled:
		line = fmt.Sprintf("Your appointment with %s has moved from %s %s to %s %s.",
			doctor.Name, e.PreviousDate, e.PreviousTime, a.Date, a.Time)
	case scheduling.EventCancelled:
		reason := ""
		if a.CancellationReason != nil {
			reason = " Reason: " + *a.CancellationReason + "."
		}
		line = fmt.Sprintf("Your appointment with %s on %s at %s has been cancelled.%s", doctor.Name, a.Date, a.Time, reason)
	case scheduling.EventAbsent:
		line = fmt.Sprintf("You missed your appointment with %s on %s at %s. Please book a new slot.", doctor.Name, a.Date, a.Time)
	}
	return fmt.Sprintf("<p>Dear %s,</p><p>%s</p><p>Best regards,<br>Your Clinic Team</p>", patient.Name, line)
}
