package handler

import (
	"strconv"

	"go-rackstock-ws/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type ActivityHandler struct {
	activityRepo repository.ActivityRepository
}

func NewActivityHandler(activityRepo repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo}
}

// GetActivities returns the most recent activity log entries.
// GET /api/v1/activities?limit=50
func (h *ActivityHandler) GetActivities(c *fiber.Ctx) error {
	limit := 50
	if q := c.Query("limit"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed < 1 || parsed > 200 {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	entries, err := h.activityRepo.FindRecent(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch activities"})
	}
	return c.JSON(entries)
}
