package handler

import (
	"errors"

	"go-rackstock-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.CreateProduct(&req, getActor(c))
	if err != nil {
		if errors.Is(err, service.ErrSKUExists) {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid product ID"})
	}

	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	product, err := h.service.UpdateProduct(id, &req, getActor(c))
	if err != nil {
		if errors.Is(err, service.ErrProductMissing) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(products)
}

func (h *CatalogHandler) CreateProject(c *fiber.Ctx) error {
	var req service.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	project, err := h.service.CreateProject(&req, getActor(c))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Project created", "data": project})
}

func (h *CatalogHandler) GetProjects(c *fiber.Ctx) error {
	projects, err := h.service.GetAllProjects()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(projects)
}

func (h *CatalogHandler) GetProject(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	project, err := h.service.GetProjectByID(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Project not found"})
	}
	return c.JSON(project)
}

type addMemberRequest struct {
	UserID    string `json:"user_id"`
	AsManager bool   `json:"as_manager"`
}

// AddProjectMember attaches a user to the project, optionally as a manager.
// POST /api/v1/projects/:id/members
func (h *CatalogHandler) AddProjectMember(c *fiber.Ctx) error {
	projectID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid project ID"})
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	userID, err := parseUUID(req.UserID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := h.service.AddProjectMember(projectID, userID, req.AsManager); err != nil {
		if errors.Is(err, service.ErrProjectMissing) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Member added"})
}

func (h *CatalogHandler) CreateRack(c *fiber.Ctx) error {
	var req service.CreateRackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	rack, err := h.service.CreateRack(&req, getActor(c))
	if err != nil {
		if errors.Is(err, service.ErrProjectMissing) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(201).JSON(fiber.Map{"message": "Rack created", "data": rack})
}

// GetRacks lists racks, optionally scoped to ?project_id=
func (h *CatalogHandler) GetRacks(c *fiber.Ctx) error {
	var projectID *uuid.UUID
	if q := c.Query("project_id"); q != "" {
		id, err := parseUUID(q)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid project_id filter"})
		}
		projectID = &id
	}

	racks, err := h.service.GetRacks(projectID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(racks)
}

func (h *CatalogHandler) GetRack(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid rack ID"})
	}

	rack, err := h.service.GetRackByID(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Rack not found"})
	}
	return c.JSON(rack)
}
