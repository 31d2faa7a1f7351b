package utils

import (
	"context"
	"testing"
	"time"

	"github.com/meinhoongagan/clinic-booking/memstore"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct{ to, subject, body string }

type fakeSender struct{ sent chan sentMail }

func (f *fakeSender) Send(to, subject, body string) error {
	f.sent <- sentMail{to, subject, body}
	return nil
}

func newMailer(t *testing.T) (*Mailer, *fakeSender, models.Appointment) {
	t.Helper()
	store := memstore.New()
	doctor := store.SaveDoctor(models.Doctor{Name: "Dr. Mehta"})
	patient := store.SavePatient(models.Patient{Name: "Asha", Email: "asha@example.test"})
	sender := &fakeSender{sent: make(chan sentMail, 4)}
	apt := models.Appointment{DoctorID: doctor.ID, PatientID: patient.ID, Date: "2025-03-10", Time: "10:00"}
	return NewMailer(sender, store, store, zap.NewNop()), sender, apt
}

func TestMailerSendsQueuedNotifications(t *testing.T) {
	m, sender, apt := newMailer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.AppointmentChanged(ctx, scheduling.Event{Kind: scheduling.EventRescheduled, Appointment: apt, PreviousDate: "2025-03-09", PreviousTime: "09:00"})

	select {
	case got := <-sender.sent:
		assert.Equal(t, "asha@example.test", got.to)
		assert.Equal(t, "Appointment rescheduled", got.subject)
		assert.Contains(t, got.body, "from 2025-03-09 09:00 to 2025-03-10 10:00")
	case <-time.After(2 * time.Second):
		t.Fatal("no mail sent")
	}
}

func TestMailerIgnoresInternalEvents(t *testing.T) {
	m, _, apt := newMailer(t)

	m.AppointmentChanged(context.Background(), scheduling.Event{Kind: scheduling.EventConflict, Appointment: apt})
	m.AppointmentChanged(context.Background(), scheduling.Event{Kind: scheduling.EventStarted, Appointment: apt})
	assert.Empty(t, m.queue)
}

func TestSendReminder(t *testing.T) {
	m, sender, apt := newMailer(t)

	require.NoError(t, m.SendReminder(context.Background(), apt))
	got := <-sender.sent
	assert.Equal(t, "Reminder: upcoming appointment", got.subject)
	assert.Contains(t, got.body, "Dr. Mehta")

	apt.PatientID = apt.DoctorID
	assert.Error(t, m.SendReminder(context.Background(), apt))
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	loc, err = LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	_, err = LoadLocation("Nowhere/City")
	assert.Error(t, err)
}
