package service

import (
	"errors"
	"fmt"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSKUExists      = errors.New("SKU already exists")
	ErrProductMissing = errors.New("product not found")
	ErrProjectMissing = errors.New("project not found")
	ErrRackMissing    = errors.New("rack not found")
)

type CreateProductRequest struct {
	SKU   string          `json:"sku" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Unit  string          `json:"unit"`
	Price decimal.Decimal `json:"price"`
}

type CreateProjectRequest struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
}

type CreateRackRequest struct {
	RackNumber string `json:"rack_number" validate:"required"`
	ProjectID  string `json:"project_id" validate:"required,uuidstr"`
}

// CatalogService manages the entities the ledger references: products,
// projects and racks. Pure CRUD, no stock mutation beyond creating empty
// racks.
type CatalogService interface {
	CreateProduct(req *CreateProductRequest, actor Actor) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *CreateProductRequest, actor Actor) (*model.Product, error)
	GetAllProducts() ([]model.Product, error)

	CreateProject(req *CreateProjectRequest, actor Actor) (*model.Project, error)
	GetAllProjects() ([]model.Project, error)
	GetProjectByID(id uuid.UUID) (*model.Project, error)
	AddProjectMember(projectID, userID uuid.UUID, asManager bool) error

	CreateRack(req *CreateRackRequest, actor Actor) (*model.Rack, error)
	GetRacks(projectID *uuid.UUID) ([]model.Rack, error)
	GetRackByID(id uuid.UUID) (*model.Rack, error)
}

type catalogService struct {
	productRepo   repository.ProductRepository
	projectRepo   repository.ProjectRepository
	rackRepo      repository.RackRepository
	notifications NotificationService
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	projectRepo repository.ProjectRepository,
	rackRepo repository.RackRepository,
	notifications NotificationService,
) CatalogService {
	return &catalogService{
		productRepo:   productRepo,
		projectRepo:   projectRepo,
		rackRepo:      rackRepo,
		notifications: notifications,
	}
}

func (s *catalogService) CreateProduct(req *CreateProductRequest, actor Actor) (*model.Product, error) {
	// 1. Validasi struct dasar
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Cek duplikasi SKU
	existing, _ := s.productRepo.FindBySKU(req.SKU)
	if existing != nil && existing.ID != uuid.Nil {
		return nil, ErrSKUExists
	}

	product := &model.Product{
		SKU:   req.SKU,
		Name:  req.Name,
		Unit:  req.Unit,
		Price: req.Price,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID
	product.CreatedByUserID = &actor.ID
	product.UpdatedByUserID = &actor.ID

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	go s.notifications.Publish(Notice{
		Title: "Product created",
		Body:  fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
		Payload: map[string]interface{}{
			"type":       "catalog",
			"action":     "product_created",
			"product_id": product.ID,
			"sku":        product.SKU,
		},
	})

	return product, nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *CreateProductRequest, actor Actor) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, err := s.productRepo.FindByID(id)
	if err != nil {
		return nil, ErrProductMissing
	}

	existing.SKU = req.SKU
	existing.Name = req.Name
	existing.Unit = req.Unit
	existing.Price = req.Price
	existing.UpdatedBy = actor.ID
	existing.UpdatedByUserID = &actor.ID

	if err := s.productRepo.Update(existing); err != nil {
		return nil, err
	}

	go s.notifications.Publish(Notice{
		Title: "Product updated",
		Body:  fmt.Sprintf("%s updated product '%s'", actor.Name, existing.Name),
		Payload: map[string]interface{}{
			"type":       "catalog",
			"action":     "product_updated",
			"product_id": existing.ID,
		},
	})

	return existing, nil
}

func (s *catalogService) GetAllProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *catalogService) CreateProject(req *CreateProjectRequest, actor Actor) (*model.Project, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	project := &model.Project{
		Name:  req.Name,
		Color: req.Color,
	}
	project.CreatedBy = actor.ID
	project.UpdatedBy = actor.ID

	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *catalogService) GetAllProjects() ([]model.Project, error) {
	return s.projectRepo.FindAll()
}

func (s *catalogService) GetProjectByID(id uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(id)
	if err != nil {
		return nil, ErrProjectMissing
	}
	return project, nil
}

func (s *catalogService) AddProjectMember(projectID, userID uuid.UUID, asManager bool) error {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return ErrProjectMissing
	}
	return s.projectRepo.AddMember(projectID, userID, asManager)
}

func (s *catalogService) CreateRack(req *CreateRackRequest, actor Actor) (*model.Rack, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, errors.New("invalid project id")
	}
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return nil, ErrProjectMissing
	}

	rack := &model.Rack{
		RackNumber: req.RackNumber,
		ProjectID:  projectID,
		Products:   model.RackProducts{},
	}
	rack.CreatedBy = actor.ID
	rack.UpdatedBy = actor.ID

	if err := s.rackRepo.Create(rack); err != nil {
		return nil, err
	}
	return rack, nil
}

func (s *catalogService) GetRacks(projectID *uuid.UUID) ([]model.Rack, error) {
	return s.rackRepo.FindAll(projectID)
}

func (s *catalogService) GetRackByID(id uuid.UUID) (*model.Rack, error) {
	rack, err := s.rackRepo.FindByID(id)
	if err != nil {
		return nil, ErrRackMissing
	}
	return rack, nil
}
