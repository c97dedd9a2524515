package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidRole, fiber.StatusBadRequest},
	{service.ErrRoleAlreadySet, fiber.StatusBadRequest},
	{service.ErrEmptyPost, fiber.StatusBadRequest},
	{service.ErrEmptyReply, fiber.StatusBadRequest},
	{service.ErrEmptyDisplayName, fiber.StatusBadRequest},
	{service.ErrInvalidCursor, fiber.StatusBadRequest},

	{service.ErrAuthenticationFailed, fiber.StatusUnauthorized},
	{service.ErrTokenRevoked, fiber.StatusUnauthorized},

	{service.ErrRoleNotSet, fiber.StatusForbidden},
	{service.ErrNotAuthor, fiber.StatusForbidden},
	{service.ErrSelfUpvote, fiber.StatusForbidden},
	{service.ErrCannotMarkAnswered, fiber.StatusForbidden},

	{service.ErrUserNotFound, fiber.StatusNotFound},
	{service.ErrPostNotFound, fiber.StatusNotFound},

	{service.ErrUploadsDisabled, fiber.StatusServiceUnavailable},
}

// respondError writes err as a JSON error body. Errors the service layer does
// not name are logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(fiber.Map{"error": m.err.Error()})
		}
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
