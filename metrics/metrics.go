package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AppointmentEvents *prometheus.CounterVec
	DoubleBookings    prometheus.Counter
	SweepRuns         *prometheus.CounterVec
	SweepCancelled    prometheus.Counter
}

// NewCollector registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	f := promauto.With(reg)
	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "route"}),

		AppointmentEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointment_events_total",
			Help:      "Committed appointment changes by event kind.",
		}, []string{"kind"}),

		DoubleBookings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "double_bookings_rejected_total",
			Help:      "Bookings or reschedules rejected because the doctor was already booked.",
		}),

		SweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "absence_sweeps_total",
			Help:      "Absence sweep runs by outcome.",
		}, []string{"outcome"}),

		SweepCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "absence_sweep_cancelled_total",
			Help:      "Appointments cancelled as absent by the sweep.",
		}),
	}
}

// AppointmentChanged counts scheduling events.
func (c *Collector) AppointmentChanged(_ context.Context, e scheduling.Event) {
	if e.Kind == scheduling.EventConflict {
		c.DoubleBookings.Inc()
		return
	}
	c.AppointmentEvents.WithLabelValues(string(e.Kind)).Inc()
}

// ObserveSweep records one sweep run.
func (c *Collector) ObserveSweep(n int64, err error) {
	if err != nil {
		c.SweepRuns.WithLabelValues("error").Inc()
		return
	}
	c.SweepRuns.WithLabelValues("ok").Inc()
	c.SweepCancelled.Add(float64(n))
}

// Middleware records request counts and latency by matched route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := ctx.Route().Path
		c.RequestsTotal.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
