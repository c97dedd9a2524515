package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

type UserHandler struct {
	userService service.UserService
	feedService service.FeedService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService, feedService service.FeedService) *UserHandler {
	return &UserHandler{
		userService: userService,
		feedService: feedService,
		validate:    validator.New(),
	}
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"required,max=80"`
	Avatar      *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type RegisterTokenRequest struct {
	DeviceToken string `json:"deviceToken" validate:"required"`
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID format")
	}

	profile, err := h.userService.GetUserProfileByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *UserHandler) ListUserPosts(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID format")
	}

	page, err := h.feedService.ByAuthor(c.UserContext(), userID, c.Query("cursor"), viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *UserHandler) ListUpvotedPosts(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)

	page, err := h.feedService.Upvoted(c.UserContext(), actor.UserID, c.Query("cursor"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	user, err := h.userService.UpdateUserProfile(c.UserContext(), actor.UserID, service.UpdateUserDTO{
		DisplayName: req.DisplayName,
		AvatarURL:   req.Avatar,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *UserHandler) GetAvatarUploadURL(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)

	upload, err := h.userService.AvatarUploadURL(c.UserContext(), actor.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(upload)
}

func (h *UserHandler) RegisterDeviceToken(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)

	var req RegisterTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	if err := h.userService.RegisterDeviceToken(c.UserContext(), actor.UserID, req.DeviceToken); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Device token registered successfully"})
}
