package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper cancels past appointments nobody attended.
type Sweeper interface {
	MarkPastAsAbsent(ctx context.Context, doctorID, patientID *uuid.UUID) (int64, error)
}

// Reminder mails a patient about an upcoming appointment.
type Reminder interface {
	SendReminder(ctx context.Context, apt models.Appointment) error
}

// Ledger remembers which appointments were already reminded. MarkReminded
// returns false when id was marked before; Forget releases a mark whose
// reminder could not be delivered.
type Ledger interface {
	MarkReminded(ctx context.Context, id uuid.UUID) (bool, error)
	Forget(ctx context.Context, id uuid.UUID) error
}

// SweepObserver receives the outcome of every sweep run.
type SweepObserver interface {
	ObserveSweep(n int64, err error)
}

type Jobs struct {
	Sweeper      Sweeper
	Appointments scheduling.AppointmentRepository
	Reminder     Reminder
	Ledger       Ledger
	Observer     SweepObserver
	Clock        scheduling.Clock
	ReminderLead time.Duration
	Log          *zap.Logger
}

type Schedule struct {
	Sweep    string
	Reminder string
}

// Start registers the sweep and reminder jobs and starts the scheduler. An
// empty expression disables that job. Stop the returned cron on shutdown.
func Start(jobs *Jobs, sched Schedule, loc *time.Location) (*cron.Cron, error) {
	logger := zapLogger{jobs.Log.Sugar()}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if sched.Sweep != "" && jobs.Sweeper != nil {
		if _, err := c.AddFunc(sched.Sweep, func() { jobs.RunSweep(context.Background()) }); err != nil {
			return nil, fmt.Errorf("adding sweep job %q: %w", sched.Sweep, err)
		}
	}
	if sched.Reminder != "" && jobs.Reminder != nil {
		if _, err := c.AddFunc(sched.Reminder, func() { jobs.RunReminders(context.Background()) }); err != nil {
			return nil, fmt.Errorf("adding reminder job %q: %w", sched.Reminder, err)
		}
	}

	c.Start()
	jobs.Log.Info("cron scheduler started",
		zap.String("sweep", sched.Sweep),
		zap.String("reminder", sched.Reminder),
	)
	return c, nil
}

// RunSweep performs one absence sweep across all doctors.
func (j *Jobs) RunSweep(ctx context.Context) int64 {
	n, err := j.Sweeper.MarkPastAsAbsent(ctx, nil, nil)
	if j.Observer != nil {
		j.Observer.ObserveSweep(n, err)
	}
	if err != nil {
		j.Log.Error("scheduled absence sweep failed", zap.Error(err))
		return 0
	}
	if n > 0 {
		j.Log.Info("scheduled absence sweep", zap.Int64("cancelled", n))
	}
	return n
}

// RunReminders mails every confirmed appointment starting within the
// reminder lead that has not been reminded yet. It returns how many were sent.
func (j *Jobs) RunReminders(ctx context.Context) int {
	now := j.Clock.Now()
	until := now.Add(j.ReminderLead)

	var dates []string
	for d := now; !d.After(until); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(scheduling.DateLayout))
	}
	if last := until.Format(scheduling.DateLayout); dates[len(dates)-1] != last {
		dates = append(dates, last)
	}

	upcoming, err := j.Appointments.FindUpcoming(ctx, dates)
	if err != nil {
		j.Log.Error("loading upcoming appointments failed", zap.Error(err))
		return 0
	}

	sent := 0
	for _, apt := range upcoming {
		start, err := scheduling.At(apt.Date, apt.Time, now.Location())
		if err != nil || !start.After(now) || start.After(until) {
			continue
		}
		if j.Ledger != nil {
			first, err := j.Ledger.MarkReminded(ctx, apt.ID)
			if err != nil {
				j.Log.Warn("reminder ledger unavailable", zap.Error(err))
				continue
			}
			if !first {
				continue
			}
		}
		if err := j.Reminder.SendReminder(ctx, apt); err != nil {
			j.Log.Error("sending reminder failed", zap.String("appointment_id", apt.ID.String()), zap.Error(err))
			if j.Ledger != nil {
				if err := j.Ledger.Forget(ctx, apt.ID); err != nil {
					j.Log.Warn("releasing reminder mark failed", zap.String("appointment_id", apt.ID.String()), zap.Error(err))
				}
			}
			continue
		}
		sent++
	}
	if sent > 0 {
		j.Log.Info("appointment reminders sent", zap.Int("count", sent))
	}
	return sent
}

// MemoryLedger is a process-local Ledger.
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[uuid.UUID]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[uuid.UUID]struct{})}
}

func (l *MemoryLedger) MarkReminded(_ context.Context, id uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[id]; ok {
		return false, nil
	}
	l.seen[id] = struct{}{}
	return true, nil
}

func (l *MemoryLedger) Forget(_ context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, id)
	return nil
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
