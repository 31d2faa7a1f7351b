package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"go.uber.org/zap"
)

type createAppointmentRequest struct {
	DoctorID  string   `json:"doctorId" validate:"required,uuid"`
	PatientID string   `json:"patientId" validate:"omitempty,uuid"`
	CenterID  string   `json:"centerId" validate:"omitempty,uuid"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string   `json:"time" validate:"required"`
	Duration  int      `json:"duration" validate:"gte=0"`
	Type      string   `json:"type" validate:"required,oneof=consultation follow_up emergency routine"`
	VisitKind string   `json:"visitKind" validate:"omitempty,oneof=clinic home"`
	Notes     string   `json:"notes"`
	Fee       *float64 `json:"fee" validate:"omitempty,gte=0"`
}

type rescheduleRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required"`
	Reason string `json:"reason"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type statusRequest struct {
	Status       string `json:"status" validate:"required"`
	Diagnosis    string `json:"diagnosis"`
	Prescription string `json:"prescription"`
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Description Patients book for themselves; doctors book into their own calendar; admins book for anyone
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body createAppointmentRequest true "Booking"
// @Success 201 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments [post]
func (h *Handler) CreateAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	var body createAppointmentRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}

	req := scheduling.BookingRequest{
		DoctorID:  uuid.MustParse(body.DoctorID),
		Date:      body.Date,
		Time:      body.Time,
		Duration:  body.Duration,
		Type:      models.AppointmentType(body.Type),
		VisitKind: models.VisitKind(body.VisitKind),
		Notes:     body.Notes,
	}
	if body.PatientID != "" {
		req.PatientID = uuid.MustParse(body.PatientID)
	}
	if body.CenterID != "" {
		id := uuid.MustParse(body.CenterID)
		req.CenterID = &id
	}

	switch actor.Role {
	case scheduling.RolePatient:
		if req.PatientID != uuid.Nil && req.PatientID != actor.ID {
			return h.writeError(c, scheduling.ErrForbidden)
		}
		req.PatientID = actor.ID
	case scheduling.RoleDoctor:
		if req.DoctorID != actor.ID {
			return h.writeError(c, scheduling.ErrForbidden)
		}
	case scheduling.RoleAdmin:
		req.Fee = body.Fee
	}

	apt, err := h.engine.Booking.CreateBooking(c.UserContext(), req)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(apt)
}

// GetAppointment godoc
// @Summary Get an appointment by ID
// @Tags appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} models.Appointment
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /appointments/{id} [get]
func (h *Handler) GetAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	apt, err := h.appointments.FindByID(c.UserContext(), id)
	if err != nil {
		return h.writeError(c, err)
	}
	if apt == nil {
		return h.writeError(c, &scheduling.NotFoundError{Resource: "appointment", ID: id.String()})
	}
	if !canRead(actor, apt) {
		return h.writeError(c, scheduling.ErrForbidden)
	}
	return c.JSON(apt)
}

func canRead(actor scheduling.Actor, apt *models.Appointment) bool {
	switch actor.Role {
	case scheduling.RoleAdmin:
		return true
	case scheduling.RolePatient:
		return actor.ID == apt.PatientID
	case scheduling.RoleDoctor:
		return actor.ID == apt.DoctorID
	}
	return false
}

// RescheduleAppointment godoc
// @Summary Move an appointment to another slot
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param body body rescheduleRequest true "New slot"
// @Success 200 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/reschedule [put]
func (h *Handler) RescheduleAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	var body rescheduleRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}

	apt, err := h.engine.Booking.RescheduleAppointment(c.UserContext(), scheduling.RescheduleRequest{
		AppointmentID: id,
		Date:          body.Date,
		Time:          body.Time,
		Reason:        body.Reason,
		Actor:         actor,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(apt)
}

// CancelAppointment godoc
// @Summary Cancel an appointment
// @Description Patients must cancel before the cancellation window closes
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Router /appointments/{id}/cancel [put]
func (h *Handler) CancelAppointment(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	var body cancelRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &body); err != nil {
			return h.writeError(c, err)
		}
	}

	apt, err := h.engine.Booking.CancelAppointment(c.UserContext(), scheduling.CancelRequest{
		AppointmentID: id,
		Reason:        body.Reason,
		Actor:         actor,
	})
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(apt)
}

// UpdateStatus godoc
// @Summary Move an appointment through its lifecycle
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param body body statusRequest true "Target status"
// @Success 200 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/status [put]
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	var body statusRequest
	if err := h.bind(c, &body); err != nil {
		return h.writeError(c, err)
	}

	to := models.AppointmentStatus(body.Status)
	var apt *models.Appointment
	if to == models.StatusCancelled {
		apt, err = h.engine.Booking.CancelAppointment(c.UserContext(), scheduling.CancelRequest{
			AppointmentID: id,
			Actor:         actor,
		})
	} else {
		apt, err = h.engine.Lifecycle.Transition(c.UserContext(), id, actor, to, scheduling.CompletionRecord{
			Diagnosis:    body.Diagnosis,
			Prescription: body.Prescription,
		})
	}
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(apt)
}

// SweepAbsences godoc
// @Summary Cancel past appointments nobody attended
// @Tags appointments
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /appointments/sweep [post]
func (h *Handler) SweepAbsences(c *fiber.Ctx) error {
	n, err := h.engine.Lifecycle.MarkPastAsAbsent(c.UserContext(), nil, nil)
	if h.sweeps != nil {
		h.sweeps.ObserveSweep(n, err)
	}
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

// DoctorAppointments godoc
// @Summary List a doctor's appointments for one day
// @Description Past appointments nobody attended are marked absent first
// @Tags doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string true "YYYY-MM-DD"
// @Success 200 {array} models.Appointment
// @Router /doctors/{id}/appointments [get]
func (h *Handler) DoctorAppointments(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return h.writeError(c, err)
	}
	doctorID, err := uuidParam(c, "id")
	if err != nil {
		return h.writeError(c, err)
	}
	if !canActForDoctor(actor, doctorID) {
		return h.writeError(c, scheduling.ErrForbidden)
	}
	date := c.Query("date")
	if _, err := scheduling.ParseDate(date, time.UTC); err != nil {
		return h.writeError(c, &scheduling.ValidationError{Fields: []string{"date must be YYYY-MM-DD"}})
	}

	if n, err := h.engine.Lifecycle.MarkPastAsAbsent(c.UserContext(), &doctorID, nil); err != nil {
		h.log.Warn("on-demand absence sweep failed", zap.String("doctor_id", doctorID.String()), zap.Error(err))
	} else if h.sweeps != nil {
		h.sweeps.ObserveSweep(n, nil)
	}

	apts, err := h.appointments.FindByDoctorAndDate(c.UserContext(), doctorID, date)
	if err != nil {
		return h.writeError(c, err)
	}
	if apts == nil {
		apts = []models.Appointment{}
	}
	return c.JSON(apts)
}
