package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
)

type overrideRequest struct {
	Windows []models.Window `json:"windows"`
	Reason  string          `json:"reason"`
}

type vacationRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Reason    string `json:"reason"`
}

type centerScheduleRequest struct {
	CenterID     string                `json:"centerId" validate:"required,uuid"`
	DayOfWeek    *int                  `json:"dayOfWeek" validate:"required,min=0,max=6"`
	SlotDuration int                   `json:"slotDuration" validate:"gte=0"`
	Slots        []models.ScheduleSlot `json:"slots"`
	IsAvailable  *bool                 `json:"isAvailable"`
}

type assignCenterRequest struct {
	CenterID  string `json:"centerId" validate:"required,uuid"`
	IsPrimary bool   `json:"isPrimary"`
}

// scheduleTarget resolves the caller and the doctor whose schedule is edited.
func (h *Handler) scheduleTarget(c *fiber.Ctx) (scheduling.Actor, uuid.UUID, error) {
	if h.engine.Schedules == nil {
		return scheduling.Actor{}, uuid.Nil, errors.New("schedule management is not configured")
	}
	actor, err := h.actor(c)
	if err != nil {
		return actor, uuid.Nil, err
	}
	doctorID, err := uuidParam(c, "id")
	return actor, doctorID, err
}

// SetWeeklyHours replaces a doctor's recurring weekly pattern. The body maps
// a weekday number (0 = Sunday) to its hours.
func (h *Handler) SetWeeklyHours(c *fiber.Ctx) error {
	actor, doctorID, err := h.scheduleTarget(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var hours models.WeeklyHours
	if err := h.bind(c, &hours); err != nil {
		return h.writeError(c, err)
	}
	if err := h.engine.Schedules.SetWeeklyHours(c.UserContext(), actor, doctorID, hours); err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"doctorId": doctorID, "weeklyHours": hours})
}

// SetOverride replaces the windows of a single date. An empty window list
// blocks the day.
func (h *Handler) SetOverride(c *fiber.Ctx) error {
	actor, doctorID, err := h.scheduleTarget(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body overrideRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}
	o, err := h.engine.Schedules.SetOverride(c.UserContext(), actor, doctorID, c.Params("date"), body.Windows, body.Reason)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(o)
}

func (h *Handler) AddVacation(c *fiber.Ctx) error {
	actor, doctorID, err := h.scheduleTarget(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body vacationRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}
	v, err := h.engine.Schedules.AddVacation(c.UserContext(), actor, doctorID, body.StartDate, body.EndDate, body.Reason)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

// SetCenterSchedule stores the explicit slot list a doctor offers at a center
// on one weekday.
func (h *Handler) SetCenterSchedule(c *fiber.Ctx) error {
	actor, doctorID, err := h.scheduleTarget(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body centerScheduleRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}
	available := true
	if body.IsAvailable != nil {
		available = *body.IsAvailable
	}
	saved, err := h.engine.Schedules.SetCenterSchedule(c.UserContext(), actor, models.DoctorSchedule{
		DoctorID:     doctorID,
		CenterID:     uuid.MustParse(body.CenterID),
		DayOfWeek:    models.DayOfWeek(*body.DayOfWeek),
		SlotDuration: body.SlotDuration,
		Slots:        body.Slots,
		IsAvailable:  available,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(saved)
}

func (h *Handler) AssignCenter(c *fiber.Ctx) error {
	actor, doctorID, err := h.scheduleTarget(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body assignCenterRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}
	centerID := uuid.MustParse(body.CenterID)
	if err := h.engine.Schedules.AssignCenter(c.UserContext(), actor, doctorID, centerID, body.IsPrimary); err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"doctorId":  doctorID,
		"centerId":  centerID,
		"isPrimary": body.IsPrimary,
	})
}
