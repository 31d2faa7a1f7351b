package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/middleware"
	"github.com/meinhoongagan/clinic-booking/models"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/meinhoongagan/clinic-booking/utils"
	"go.uber.org/zap"
)

// SlotSource answers availability queries, either the engine directly or the
// redis read cache in front of it.
type SlotSource interface {
	GetAvailableSlots(ctx context.Context, q scheduling.AvailabilityQuery) ([]scheduling.Slot, error)
}

// AppointmentReader serves the read-only appointment lookups.
type AppointmentReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	FindByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date string) ([]models.Appointment, error)
}

// SweepObserver receives the outcome of manually triggered sweeps.
type SweepObserver interface {
	ObserveSweep(n int64, err error)
}

type Deps struct {
	Engine       *scheduling.Engine
	Slots        SlotSource
	Appointments AppointmentReader
	Sweeps       SweepObserver
	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
	Log    *zap.Logger
}

// Handler serves the booking HTTP surface.
type Handler struct {
	engine       *scheduling.Engine
	slots        SlotSource
	appointments AppointmentReader
	sweeps       SweepObserver
	health       func(ctx context.Context) error
	validate     *validator.Validate
	log          *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Slots == nil {
		d.Slots = d.Engine.Availability
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		engine:       d.Engine,
		slots:        d.Slots,
		appointments: d.Appointments,
		sweeps:       d.Sweeps,
		health:       d.Health,
		validate:     validator.New(),
		log:          d.Log,
	}
}

var errUnauthenticated = errors.New("no authenticated principal")

// bind parses the JSON body into dst and runs its validate tags. Failures are
// returned as *scheduling.ValidationError.
func (h *Handler) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &scheduling.ValidationError{Fields: []string{"malformed request body: " + err.Error()}}
	}
	if err := h.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// dst is not a struct; nothing to validate.
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldMessage(fe))
		}
		return &scheduling.ValidationError{Fields: fields}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	if name != "" {
		name = strings.ToLower(name[:1]) + name[1:]
	}
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "uuid":
		return name + " must be a UUID"
	case "datetime":
		return name + " must match " + fe.Param()
	case "oneof":
		return name + " must be one of " + fe.Param()
	}
	return name + " is invalid"
}

// writeError maps the scheduling error taxonomy onto HTTP statuses.
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var (
		verr *scheduling.ValidationError
		nf   *scheduling.NotFoundError
		ce   *scheduling.ConflictError
		pv   *scheduling.PolicyViolation
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Validation failed",
			Error:   err.Error(),
		})
	case errors.As(err, &nf):
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: nf.Error(),
			Error:   "Not Found",
		})
	case errors.As(err, &ce):
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: ce.Error(),
			Error:   "Conflict",
		})
	case errors.As(err, &pv):
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: pv.Message,
			Error:   "Bad Request",
			Code:    pv.Code,
		})
	case errors.Is(err, errUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
			Message: "No authentication token",
			Error:   "Unauthorized",
		})
	case errors.Is(err, scheduling.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Message: err.Error(),
			Error:   "Forbidden",
		})
	}
	h.log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
		Message: "Internal server error",
		Error:   err.Error(),
	})
}

func (h *Handler) actor(c *fiber.Ctx) (scheduling.Actor, error) {
	a, ok := middleware.CurrentActor(c)
	if !ok {
		return scheduling.Actor{}, errUnauthenticated
	}
	return a, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &scheduling.ValidationError{Fields: []string{name + " must be a UUID"}}
	}
	return id, nil
}

// canActForDoctor reports whether actor may read or manage doctorID's data.
func canActForDoctor(actor scheduling.Actor, doctorID uuid.UUID) bool {
	switch actor.Role {
	case scheduling.RoleAdmin:
		return true
	case scheduling.RoleDoctor:
		return actor.ID == doctorID
	}
	return false
}
