package handler

import (
	"strconv"

	"go-rackstock-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

// Feed returns the recent notifications visible to the caller.
// GET /api/v1/notifications?limit=50
func (h *NotificationHandler) Feed(c *fiber.Ctx) error {
	limit := 50
	if q := c.Query("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 || parsed > 200 {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	feed, err := h.service.Feed(getActor(c), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(feed)
}
