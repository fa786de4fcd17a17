package handler

import (
	"errors"

	"go-rackstock-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper untuk ambil actor info dari JWT Context (set by auth middleware)
func getActor(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if v, ok := c.Locals("user_id").(string); ok {
		actor.ID = v
	}
	if v, ok := c.Locals("user_name").(string); ok {
		actor.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		actor.Email = v
	}
	if v, ok := c.Locals("user_role").(string); ok {
		actor.Role = v
	}
	return actor
}

// Helper untuk parse UUID dari string
func parseUUID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}

type MovementHandler struct {
	service service.MovementService
}

func NewMovementHandler(s service.MovementService) *MovementHandler {
	return &MovementHandler{service: s}
}

// CreateMovement records a stock movement.
// POST /api/v1/transactions
func (h *MovementHandler) CreateMovement(c *fiber.Ctx) error {
	var req service.CreateMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	transaction, err := h.service.CreateMovement(&req, getActor(c))
	if err != nil {
		var batchErr *service.BatchValidationError
		if errors.As(err, &batchErr) {
			// Per-item failures, nothing was persisted
			return c.Status(422).JSON(fiber.Map{
				"error": "One or more items failed validation",
				"items": batchErr.Items,
			})
		}
		if errors.Is(err, service.ErrPersistenceConflict) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		if errors.Is(err, service.ErrCodeCollision) {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Transaction recorded", "data": transaction})
}

func (h *MovementHandler) GetTransactions(c *fiber.Ctx) error {
	transactions, err := h.service.GetAllTransactions()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(transactions)
}

func (h *MovementHandler) GetTransaction(c *fiber.Ctx) error {
	id := c.Params("id")
	txID, err := parseUUID(id)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	transaction, err := h.service.GetTransactionByID(txID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Transaction not found"})
	}
	return c.JSON(transaction)
}
