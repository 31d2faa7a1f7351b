package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

// GetAvailability godoc
// @Summary List a doctor's slots for one day
// @Description Booked slots are included and flagged; the list is a snapshot
// @Tags availability
// @Produce json
// @Param doctorId query string true "Doctor ID"
// @Param centerId query string false "Center ID"
// @Param date query string true "YYYY-MM-DD"
// @Param visitKind query string false "clinic or home"
// @Success 200 {object} map[string][]scheduling.Slot
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /availability [get]
func (h *Handler) GetAvailability(c *fiber.Ctx) error {
	rawDoctor := c.Params("id", c.Query("doctorId"))
	doctorID, err := uuid.Parse(rawDoctor)
	if err != nil {
		return h.writeError(c, &scheduling.ValidationError{Fields: []string{"doctorId must be a UUID"}})
	}
	q := scheduling.AvailabilityQuery{
		DoctorID:  doctorID,
		Date:      c.Query("date"),
		VisitKind: models.VisitKind(c.Query("visitKind")),
	}
	if raw := c.Query("centerId"); raw != "" {
		centerID, err := uuid.Parse(raw)
		if err != nil {
			return h.writeError(c, &scheduling.ValidationError{Fields: []string{"centerId must be a UUID"}})
		}
		q.CenterID = &centerID
	}

	slots, err := h.slots.GetAvailableSlots(c.UserContext(), q)
	if err != nil {
		return h.writeError(c, err)
	}
	if slots == nil {
		slots = []scheduling.Slot{}
	}
	return c.JSON(fiber.Map{"slots": slots})
}
