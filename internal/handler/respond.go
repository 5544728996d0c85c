package handler

import (
	"scrapyard-api/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps typed application errors to HTTP in one place so
// handlers never switch on message strings.
func respondError(c *fiber.Ctx, err error) error {
	if appErr, ok := apperr.As(err); ok {
		return c.Status(appErr.HTTPStatus).JSON(fiber.Map{
			"code":  appErr.Code,
			"error": appErr.Message,
		})
	}
	return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
}

// Helpers to read user info from the JWT context (set by auth middleware)

func getUserID(c *fiber.Ctx) string {
	userID := c.Locals("user_id")
	if userID == nil {
		return "system" // shouldn't happen in protected routes
	}
	return userID.(string)
}

func getUserUUID(c *fiber.Ctx) uuid.UUID {
	id, err := uuid.Parse(getUserID(c))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func getUserName(c *fiber.Ctx) string {
	userName := c.Locals("user_name")
	if userName == nil {
		return "Unknown"
	}
	return userName.(string)
}

func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
