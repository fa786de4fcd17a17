package handler

import (
	"errors"

	"go-rackstock-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CompleteOrder applies the pending order's stock deltas and finalizes it.
// POST /api/v1/orders/:id/complete
func (h *OrderHandler) CompleteOrder(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	result, err := h.service.CompleteOrder(id, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotOrderMode), errors.Is(err, service.ErrNotPending):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"message":  "Order processed",
		"data":     result.Transaction,
		"warnings": result.Warnings,
	})
}

// CancelOrder cancels a pending order without touching stock.
// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.CancelOrder(id, getActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			return c.Status(403).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, service.ErrNotOrderMode), errors.Is(err, service.ErrNotPending):
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Order cancelled", "data": transaction})
}
