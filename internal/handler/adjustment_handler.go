package handler

import (
	"errors"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdjustmentHandler struct {
	service service.AdjustmentService
}

func NewAdjustmentHandler(s service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{service: s}
}

// Submit files a stock adjustment request for admin review.
// POST /api/v1/adjustments
func (h *AdjustmentHandler) Submit(c *fiber.Ctx) error {
	var req service.SubmitAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.service.Submit(&req, getActor(c))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Adjustment request submitted", "data": request})
}

// GetAll lists requests, optionally filtered by ?status=pending
func (h *AdjustmentHandler) GetAll(c *fiber.Ctx) error {
	var status *model.AdjustmentStatus
	if q := c.Query("status"); q != "" {
		s := model.AdjustmentStatus(q)
		switch s {
		case model.AdjPending, model.AdjApproved, model.AdjRejected, model.AdjFailed:
			status = &s
		default:
			return c.Status(400).JSON(fiber.Map{"error": "Invalid status filter"})
		}
	}

	requests, err := h.service.GetAll(status)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(requests)
}

func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid adjustment ID"})
	}

	request, err := h.service.GetByID(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Adjustment request not found"})
	}
	return c.JSON(request)
}

// Approve applies the requested stock and hold values.
// POST /api/v1/adjustments/:id/approve
func (h *AdjustmentHandler) Approve(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid adjustment ID"})
	}

	result, err := h.service.Approve(id, getActor(c))
	if err != nil {
		var invErr *service.InventoryUpdateError
		switch {
		case errors.Is(err, service.ErrAdjustmentNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAdjustmentNotPending):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		case errors.As(err, &invErr):
			// The decision is recorded as failed; the caller gets the cause
			return c.Status(422).JSON(fiber.Map{
				"error":  "Approval recorded as failed: inventory update did not apply",
				"reason": invErr.Err.Error(),
			})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Adjustment approved", "data": result})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject declines the request without touching stock.
// POST /api/v1/adjustments/:id/reject
func (h *AdjustmentHandler) Reject(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid adjustment ID"})
	}

	var body rejectRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	request, err := h.service.Reject(id, body.Reason, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAdjustmentNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrAdjustmentNotPending):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Adjustment rejected", "data": request})
}
