package service

import (
	"fmt"
	"strings"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"

	"github.com/google/uuid"
)

// LineItemInput is one movement line as received from the client. All ids
// arrive as opaque strings and are validated before resolution.
type LineItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	ProjectID string `json:"project_id" validate:"required"`
	RackID    string `json:"rack_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required"`
}

// ResolvedItem is a line item with every reference resolved to a live record.
type ResolvedItem struct {
	Product  *model.Product
	Project  *model.Project
	Rack     *model.Rack
	Quantity int
}

// ItemError is a structured per-item validation failure.
type ItemError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %s %s", e.Index, e.Field, e.Reason)
}

// BatchValidationError carries the full per-item error list of a rejected
// batch. Validation is all-or-nothing per batch even though detection is
// per-item: callers must persist nothing when this is returned.
type BatchValidationError struct {
	Items []ItemError
}

func (e *BatchValidationError) Error() string {
	reasons := make([]string, len(e.Items))
	for i, item := range e.Items {
		reasons[i] = item.Error()
	}
	return "movement batch failed validation: " + strings.Join(reasons, "; ")
}

// EntityResolver validates a batch of movement line items against live
// records. Invalid items are recorded without aborting resolution of the
// remaining items.
type EntityResolver struct {
	productRepo repository.ProductRepository
	projectRepo repository.ProjectRepository
	rackRepo    repository.RackRepository
}

func NewEntityResolver(productRepo repository.ProductRepository, projectRepo repository.ProjectRepository, rackRepo repository.RackRepository) *EntityResolver {
	return &EntityResolver{
		productRepo: productRepo,
		projectRepo: projectRepo,
		rackRepo:    rackRepo,
	}
}

// ResolveBatch resolves every line item and collects structured errors for
// the invalid ones. For out movements it additionally checks that a matching
// rack entry exists and holds enough stock.
func (r *EntityResolver) ResolveBatch(items []LineItemInput, direction model.TransactionDirection) ([]ResolvedItem, []ItemError) {
	resolved := make([]ResolvedItem, 0, len(items))
	var itemErrors []ItemError

	for i, input := range items {
		item, errs := r.resolveOne(i, input, direction)
		if len(errs) > 0 {
			itemErrors = append(itemErrors, errs...)
			continue
		}
		resolved = append(resolved, *item)
	}

	return resolved, itemErrors
}

func (r *EntityResolver) resolveOne(index int, input LineItemInput, direction model.TransactionDirection) (*ResolvedItem, []ItemError) {
	var errs []ItemError

	fail := func(field, reason string) {
		errs = append(errs, ItemError{Index: index, Field: field, Reason: reason})
	}

	if input.Quantity <= 0 {
		fail("quantity", "must be greater than zero")
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		fail("product_id", "is not a valid id")
	}
	projectID, err := uuid.Parse(input.ProjectID)
	if err != nil {
		fail("project_id", "is not a valid id")
	}
	rackID, err := uuid.Parse(input.RackID)
	if err != nil {
		fail("rack_id", "is not a valid id")
	}
	if productID == uuid.Nil || projectID == uuid.Nil || rackID == uuid.Nil {
		return nil, errs
	}

	product, err := r.productRepo.FindByID(productID)
	if err != nil {
		fail("product_id", "not found")
	}
	project, err := r.projectRepo.FindByID(projectID)
	if err != nil {
		fail("project_id", "not found")
	}
	rack, err := r.rackRepo.FindByID(rackID)
	if err != nil {
		fail("rack_id", "not found")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	// Referential integrity: the rack must be in the stated project.
	if rack.ProjectID != project.ID {
		fail("rack_id", "is not a rack of the stated project")
		return nil, errs
	}

	if direction == model.DirectionOut {
		stock, found := rack.StockOf(product.ID)
		if !found {
			fail("product_id", "has no stock entry in this rack")
			return nil, errs
		}
		if stock < input.Quantity {
			fail("quantity", fmt.Sprintf("insufficient stock: have %d, want %d", stock, input.Quantity))
			return nil, errs
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &ResolvedItem{
		Product:  product,
		Project:  project,
		Rack:     rack,
		Quantity: input.Quantity,
	}, nil
}
