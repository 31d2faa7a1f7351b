package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/meinhoongagan/clinic-booking/controllers"
	"github.com/meinhoongagan/clinic-booking/metrics"
	"github.com/meinhoongagan/clinic-booking/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Options struct {
	JWTSecret   string
	CORSOrigins string
	Metrics     *metrics.Collector
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// Setup installs the global middleware and every route group on app.
func Setup(app *fiber.App, h *controllers.Handler, opts Options) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(opts.Log))
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{AllowOrigins: opts.CORSOrigins}))
	}
	if opts.Metrics != nil {
		app.Use(opts.Metrics.Middleware())
	}

	app.Get("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	protected := middleware.Protected(opts.JWTSecret, opts.Log)
	SetupAvailabilityRoutes(app, h)
	SetupAppointmentRoutes(app, h, protected)
	SetupDoctorRoutes(app, h, protected)
}
