package handler

import (
	"go-rackstock-ws/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type HoldHandler struct {
	holdRepo repository.HoldRepository
}

func NewHoldHandler(holdRepo repository.HoldRepository) *HoldHandler {
	return &HoldHandler{holdRepo: holdRepo}
}

// GetRackHolds lists per-rack held quantities for a project.
// GET /api/v1/projects/:id/rack-holds
func (h *HoldHandler) GetRackHolds(c *fiber.Ctx) error {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	holds, err := h.holdRepo.FindRackHolds(projectID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch rack holds"})
	}
	return c.JSON(holds)
}

// GetProjectHolds lists the aggregated per-product holds for a project.
// GET /api/v1/projects/:id/holds
func (h *HoldHandler) GetProjectHolds(c *fiber.Ctx) error {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	holds, err := h.holdRepo.FindProjectHolds(projectID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch project holds"})
	}
	return c.JSON(holds)
}
