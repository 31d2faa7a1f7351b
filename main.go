package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-booking/config"
	"github.com/meinhoongagan/clinic-booking/controllers"
	"github.com/meinhoongagan/clinic-booking/cron"
	"github.com/meinhoongagan/clinic-booking/db"
	"github.com/meinhoongagan/clinic-booking/logger"
	"github.com/meinhoongagan/clinic-booking/memstore"
	"github.com/meinhoongagan/clinic-booking/metrics"
	cache "github.com/meinhoongagan/clinic-booking/redis"
	"github.com/meinhoongagan/clinic-booking/routes"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/meinhoongagan/clinic-booking/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:           "clinic-booking",
		Short:         "Doctor availability and appointment booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), sweepCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and overlap constraints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			gdb, err := db.Open(cfg.Database, log)
			if err != nil {
				return err
			}
			return db.Migrate(gdb, log)
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Cancel every past appointment nobody attended, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			rt, err := newRuntime(cfg, log)
			if err != nil {
				return err
			}
			defer rt.close()

			n, err := rt.engine.Lifecycle.MarkPastAsAbsent(cmd.Context(), nil, nil)
			if err != nil {
				return err
			}
			log.Info("absence sweep finished", zap.Int64("cancelled", n))
			return nil
		},
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

type store interface {
	scheduling.AppointmentRepository
	scheduling.ScheduleRepository
	scheduling.PatientRepository
	scheduling.ScheduleWriter
}

// runtime holds everything built from configuration.
type runtime struct {
	cfg       *config.Config
	log       *zap.Logger
	loc       *time.Location
	gdb       *gorm.DB
	rdb       *goredis.Client
	store     store
	cache     *cache.AvailabilityCache
	observers *scheduling.Observers
	engine    *scheduling.Engine
}

func newRuntime(cfg *config.Config, log *zap.Logger) (*runtime, error) {
	loc, err := utils.LoadLocation(cfg.Scheduling.Timezone)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, loc: loc, observers: &scheduling.Observers{}}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using the in-memory store; data is lost on exit")
		rt.store = memstore.New()
	default:
		rt.gdb, err = db.Open(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		rt.store = db.NewStore(rt.gdb)
	}

	var invalidator scheduling.Invalidator
	slots := &deferredSlots{}
	if cfg.Redis.Addr != "" {
		rt.rdb, err = cache.NewClient(cfg.Redis, log)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.cache = cache.NewAvailabilityCache(rt.rdb, slots, cfg.Redis.CacheTTL, log.Named("cache"))
		invalidator = rt.cache
		*rt.observers = append(*rt.observers, rt.cache)
	}

	rt.engine = scheduling.NewEngine(scheduling.Deps{
		Appointments:   rt.store,
		Schedules:      rt.store,
		Patients:       rt.store,
		ScheduleWriter: rt.store,
		Invalidator:    invalidator,
		Clock:          scheduling.SystemClock{Location: loc},
		Observer:       rt.observers,
		Log:            log,
	}, scheduling.Policy{
		DefaultSlotMinutes: cfg.Scheduling.DefaultSlotMinutes,
		CancellationWindow: cfg.Scheduling.CancellationWindow,
	})
	slots.engine = rt.engine
	return rt, nil
}

func (rt *runtime) slotSource() controllers.SlotSource {
	if rt.cache != nil {
		return rt.cache
	}
	return rt.engine.Availability
}

func (rt *runtime) health(ctx context.Context) error {
	if rt.gdb != nil {
		if err := db.Ping(ctx, rt.gdb); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if rt.rdb != nil {
		if err := rt.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (rt *runtime) close() {
	if rt.rdb != nil {
		_ = rt.rdb.Close()
	}
	if rt.gdb != nil {
		if sqlDB, err := rt.gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// deferredSlots lets the read cache be built before the engine it reads
// through.
type deferredSlots struct {
	engine *scheduling.Engine
}

func (d *deferredSlots) GetAvailableSlots(ctx context.Context, q scheduling.AvailabilityQuery) ([]scheduling.Slot, error) {
	return d.engine.Availability.GetAvailableSlots(ctx, q)
}

func serve(ctx context.Context, migrate bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.close()

	if migrate && rt.gdb != nil {
		if err := db.Migrate(rt.gdb, log); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg, "clinic")
	*rt.observers = append(*rt.observers, collector)

	jobs := &cron.Jobs{
		Sweeper:      rt.engine.Lifecycle,
		Appointments: rt.store,
		Observer:     collector,
		Clock:        scheduling.SystemClock{Location: rt.loc},
		ReminderLead: cfg.Cron.ReminderLead,
		Ledger:       cron.NewMemoryLedger(),
		Log:          log.Named("cron"),
	}
	if rt.rdb != nil {
		jobs.Ledger = cache.NewReminderLedger(rt.rdb, cfg.Cron.ReminderLead+24*time.Hour)
	}

	if cfg.Mail.Host != "" {
		mailer := utils.NewMailer(utils.NewSMTPSender(cfg.Mail), rt.store, rt.store, log.Named("mail"))
		go mailer.Run(ctx)
		*rt.observers = append(*rt.observers, mailer)
		jobs.Reminder = mailer
	} else {
		log.Info("SMTP_HOST not set, mail notifications disabled")
	}

	scheduler, err := cron.Start(jobs, cron.Schedule{
		Sweep:    cfg.Cron.SweepSchedule,
		Reminder: cfg.Cron.ReminderSchedule,
	}, rt.loc)
	if err != nil {
		return err
	}
	defer func() { <-scheduler.Stop().Done() }()

	handler := controllers.NewHandler(controllers.Deps{
		Engine:       rt.engine,
		Slots:        rt.slotSource(),
		Appointments: rt.store,
		Sweeps:       collector,
		Health:       rt.health,
		Log:          log.Named("http"),
	})

	app := fiber.New(fiber.Config{
		AppName:               "clinic-booking",
		DisableStartupMessage: true,
	})
	routes.Setup(app, handler, routes.Options{
		JWTSecret:   cfg.JWT.Secret,
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     collector,
		Gatherer:    reg,
		Log:         log.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", cfg.Server.Address()), zap.String("env", cfg.App.Environment))
		errCh <- app.Listen(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
