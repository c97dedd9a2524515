package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AbhishekX2004/LearnatoForum/internal/service"
)

type SearchHandler struct {
	feedService service.FeedService
}

func NewSearchHandler(feedService service.FeedService) *SearchHandler {
	return &SearchHandler{feedService: feedService}
}

// Search handles GET /api/search?q=&sortBy=&filter=&cursor=.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	page, err := h.feedService.Search(c.UserContext(), service.SearchRequest{
		Text:   c.Query("q"),
		SortBy: c.Query("sortBy"),
		Filter: c.Query("filter"),
		Cursor: c.Query("cursor"),
		Viewer: viewerID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(page)
}
