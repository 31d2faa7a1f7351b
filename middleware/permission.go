package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/clinic-booking/utils"
)

// RequireRole lets the request through only when the caller has one of roles.
// It must run after Protected.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return unauthorized(c, "No authentication token")
		}
		for _, r := range roles {
			if actor.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
			Message: "You don't have the required role to perform this action",
			Error:   "Forbidden",
		})
	}
}
