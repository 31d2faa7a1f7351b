package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-booking/controllers"
	"github.com/meinhoongagan/clinic-booking/middleware"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, h *controllers.Handler, protected fiber.Handler) {
	appointment := app.Group("/appointments", protected)
	appointment.Post("/", h.CreateAppointment)
	appointment.Post("/sweep", middleware.RequireRole(scheduling.RoleAdmin), h.SweepAbsences)
	appointment.Get("/:id", h.GetAppointment)
	appointment.Put("/:id/reschedule", h.RescheduleAppointment)
	appointment.Put("/:id/cancel", h.CancelAppointment)
	appointment.Put("/:id/status", middleware.RequireRole(scheduling.RoleDoctor, scheduling.RoleAdmin), h.UpdateStatus)
}
