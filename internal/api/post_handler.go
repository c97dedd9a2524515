package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AbhishekX2004/LearnatoForum/internal/model"
	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

type PostHandler struct {
	postService service.PostService
	feedService service.FeedService
	validate    *validator.Validate
}

func NewPostHandler(postService service.PostService, feedService service.FeedService) *PostHandler {
	return &PostHandler{
		postService: postService,
		feedService: feedService,
		validate:    validator.New(),
	}
}

type CreatePostRequest struct {
	Title   string `json:"title" validate:"max=300"`
	Content string `json:"content" validate:"max=20000"`
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"max=20000"`
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	actor, ok := actorFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}
	// A caller without a role is refused whatever the body holds.
	if actor.Role == model.RoleUnset {
		return respondError(c, service.ErrRoleNotSet)
	}

	var req CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	post, err := h.postService.CreatePost(c.UserContext(), actor, req.Title, req.Content)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	page, err := h.feedService.Home(c.UserContext(), c.Query("cursor"), viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post ID format")
	}

	post, err := h.postService.GetPost(c.UserContext(), postID, viewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post ID format")
	}

	if err := h.postService.DeletePost(c.UserContext(), actor, postID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post deleted successfully"})
}

func (h *PostHandler) AddReply(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	if actor.Role == model.RoleUnset {
		return respondError(c, service.ErrRoleNotSet)
	}

	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post ID format")
	}

	var req CreateReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input", "details": err.Error()})
	}

	reply, err := h.postService.AddReply(c.UserContext(), actor, postID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

func (h *PostHandler) ToggleUpvote(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post ID format")
	}

	res, err := h.postService.ToggleUpvote(c.UserContext(), actor, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *PostHandler) MarkAnswered(c *fiber.Ctx) error {
	actor, _ := actorFrom(c)
	postID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid post ID format")
	}

	res, err := h.postService.MarkAnswered(c.UserContext(), actor, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(res)
}
