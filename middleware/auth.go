package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/meinhoongagan/clinic-booking/scheduling"
	"github.com/meinhoongagan/clinic-booking/utils"
	"go.uber.org/zap"
)

const actorKey = "actor"

// Protected validates the bearer token issued by the auth service and stores
// the caller as a scheduling.Actor in the request locals.
func Protected(secret string, log *zap.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Debug("rejected token", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
				Message: "Invalid or expired token",
				Error:   "Unauthorized",
			})
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c, "Invalid token claims")
			}

			userID, err := extractUserID(claims)
			if err != nil {
				log.Debug("token without usable id", zap.Error(err))
				return unauthorized(c, "Invalid user ID in token")
			}
			role, err := extractRole(claims)
			if err != nil {
				log.Debug("token without usable role", zap.Error(err))
				return unauthorized(c, "Invalid role in token")
			}

			c.Locals(actorKey, scheduling.Actor{ID: userID, Role: role})
			return c.Next()
		},
	})
}

// CurrentActor returns the caller stored by Protected.
func CurrentActor(c *fiber.Ctx) (scheduling.Actor, bool) {
	a, ok := c.Locals(actorKey).(scheduling.Actor)
	return a, ok
}

func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	idVal := claims["id"]
	if idVal == nil {
		idVal = claims["sub"]
	}
	s, ok := idVal.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("unsupported ID type: %T", idVal)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not parse ID: %w", err)
	}
	return id, nil
}

// extractRole accepts the role as a plain string or as {"name": ...}.
func extractRole(claims jwt.MapClaims) (string, error) {
	var role string
	switch v := claims["role"].(type) {
	case string:
		role = v
	case map[string]interface{}:
		role, _ = v["name"].(string)
	default:
		return "", fmt.Errorf("unsupported role type: %T", v)
	}
	switch role {
	case scheduling.RolePatient, scheduling.RoleDoctor, scheduling.RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(utils.ErrorResponse{
		Message: msg,
		Error:   "Unauthorized",
	})
}
