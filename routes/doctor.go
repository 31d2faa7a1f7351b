package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-booking/controllers"
	"github.com/meinhoongagan/clinic-booking/middleware"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

// SetupAvailabilityRoutes registers the public slot lookups.
func SetupAvailabilityRoutes(app *fiber.App, h *controllers.Handler) {
	app.Get("/availability", h.GetAvailability)
	app.Get("/doctors/:id/availability", h.GetAvailability)
}

// SetupDoctorRoutes registers the doctor calendar and schedule management
// routes. Doctors may only touch their own records.
func SetupDoctorRoutes(app *fiber.App, h *controllers.Handler, protected fiber.Handler) {
	staff := middleware.RequireRole(scheduling.RoleDoctor, scheduling.RoleAdmin)
	doctors := app.Group("/doctors")
	doctors.Get("/:id/appointments", protected, staff, h.DoctorAppointments)
	doctors.Put("/:id/weekly-hours", protected, staff, h.SetWeeklyHours)
	doctors.Put("/:id/overrides/:date", protected, staff, h.SetOverride)
	doctors.Post("/:id/vacations", protected, staff, h.AddVacation)
	doctors.Put("/:id/schedules", protected, staff, h.SetCenterSchedule)
	doctors.Post("/:id/centers", protected, staff, h.AssignCenter)
}
