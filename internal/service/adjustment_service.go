package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAdjustmentNotFound   = errors.New("stock adjustment request not found")
	ErrAdjustmentNotPending = errors.New("stock adjustment request already decided")
	ErrRackNotInProject     = errors.New("rack is not a rack of the stated project")
)

// InventoryUpdateError marks an approval that failed after validation, while
// writing the approved values to inventory. The request is moved to failed
// and callers must report this distinctly from a validation failure.
type InventoryUpdateError struct {
	Err error
}

func (e *InventoryUpdateError) Error() string {
	return "inventory update failed: " + e.Err.Error()
}

func (e *InventoryUpdateError) Unwrap() error { return e.Err }

type SubmitAdjustmentRequest struct {
	ProductID      string `json:"product_id" validate:"required,uuidstr"`
	ProjectID      string `json:"project_id" validate:"required,uuidstr"`
	RackID         string `json:"rack_id" validate:"required,uuidstr"`
	RequestedStock int    `json:"requested_stock" validate:"gte=0"`
	RequestedHold  int    `json:"requested_hold" validate:"gte=0"`
	Reason         string `json:"reason" validate:"required"`
}

type ApproveResult struct {
	Request       *model.StockAdjustmentRequest `json:"request"`
	PreviousStock int                           `json:"previous_stock"`
	NewStock      int                           `json:"new_stock"`
	PreviousHold  int                           `json:"previous_hold"`
	NewHold       int                           `json:"new_hold"`
}

// AdjustmentService is the held-quantity reconciliation workflow: managers
// submit corrections, admins decide them, and approvals write through to the
// rack and re-derive the hold aggregates.
type AdjustmentService interface {
	Submit(req *SubmitAdjustmentRequest, actor Actor) (*model.StockAdjustmentRequest, error)
	Approve(id uuid.UUID, actor Actor) (*ApproveResult, error)
	Reject(id uuid.UUID, reason string, actor Actor) (*model.StockAdjustmentRequest, error)
	GetAll(status *model.AdjustmentStatus) ([]model.StockAdjustmentRequest, error)
	GetByID(id uuid.UUID) (*model.StockAdjustmentRequest, error)
}

type adjustmentService struct {
	adjustmentRepo repository.AdjustmentRepository
	holdRepo       repository.HoldRepository
	productRepo    repository.ProductRepository
	projectRepo    repository.ProjectRepository
	rackRepo       repository.RackRepository
	updater        *RackUpdater
	activityRepo   repository.ActivityRepository
	notifications  NotificationService
	db             *gorm.DB
}

func NewAdjustmentService(
	adjustmentRepo repository.AdjustmentRepository,
	holdRepo repository.HoldRepository,
	productRepo repository.ProductRepository,
	projectRepo repository.ProjectRepository,
	rackRepo repository.RackRepository,
	updater *RackUpdater,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
	db *gorm.DB,
) AdjustmentService {
	return &adjustmentService{
		adjustmentRepo: adjustmentRepo,
		holdRepo:       holdRepo,
		productRepo:    productRepo,
		projectRepo:    projectRepo,
		rackRepo:       rackRepo,
		updater:        updater,
		activityRepo:   activityRepo,
		notifications:  notifications,
		db:             db,
	}
}

// Submit records a pending correction. Managers and admins may submit.
func (s *adjustmentService) Submit(req *SubmitAdjustmentRequest, actor Actor) (*model.StockAdjustmentRequest, error) {
	if !actor.IsManager() && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	// 1. Validate request shape
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// 2. Resolve references
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, errors.New("invalid product id")
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return nil, errors.New("invalid project id")
	}
	rackID, err := uuid.Parse(req.RackID)
	if err != nil {
		return nil, errors.New("invalid rack id")
	}

	if _, err := s.productRepo.FindByID(productID); err != nil {
		return nil, errors.New("product not found")
	}
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return nil, errors.New("project not found")
	}
	rack, err := s.rackRepo.FindByID(rackID)
	if err != nil {
		return nil, errors.New("rack not found")
	}
	if rack.ProjectID != project.ID {
		return nil, ErrRackNotInProject
	}

	// 3. Persist pending request
	request := &model.StockAdjustmentRequest{
		ProductID:         productID,
		ProjectID:         projectID,
		RackID:            rackID,
		RequestedStock:    req.RequestedStock,
		RequestedHold:     req.RequestedHold,
		Reason:            req.Reason,
		Status:            model.AdjPending,
		RequestedByUserID: actor.ID,
	}
	request.CreatedBy = actor.ID
	request.UpdatedBy = actor.ID
	if err := s.adjustmentRepo.Create(request); err != nil {
		return nil, err
	}

	go s.notifications.Publish(Notice{
		TargetRole: model.RoleAdmin,
		Title:      "Stock adjustment requested",
		Body:       fmt.Sprintf("%s requested an adjustment on rack %s", actor.Name, rack.RackNumber),
		Payload: map[string]interface{}{
			"type":          "adjustment",
			"action":        "submitted",
			"adjustment_id": request.ID,
		},
	})

	return request, nil
}

// Approve writes the approved values through to inventory:
//
//  1. read current stock for the audit delta
//  2. overwrite the rack entry with the requested on-hand value
//  3. upsert (or delete when zero) the rack-level hold
//  4. recompute the project-level hold as the full sum over rack holds
//
// Steps 2-4 run in one database transaction. When they fail, the request is
// forced to failed with the stored reason and an InventoryUpdateError is
// returned so the caller can tell this apart from a validation failure.
func (s *adjustmentService) Approve(id uuid.UUID, actor Actor) (*ApproveResult, error) {
	// Only admins approve
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	request, err := s.adjustmentRepo.FindByID(id)
	if err != nil {
		return nil, ErrAdjustmentNotFound
	}
	if request.Status != model.AdjPending {
		return nil, ErrAdjustmentNotPending
	}

	previousHold := 0
	if hold, err := s.holdRepo.GetRackHold(request.RackID, request.ProductID); err == nil {
		previousHold = hold.HeldQuantity
	}

	var previousStock int
	invErr := s.db.Transaction(func(tx *gorm.DB) error {
		prev, err := s.updater.SetStock(tx, request.RackID, request.ProductID, request.RequestedStock)
		if err != nil {
			return err
		}
		previousStock = prev

		if request.RequestedHold == 0 {
			if err := s.holdRepo.DeleteRackHold(tx, request.RackID, request.ProductID); err != nil {
				return err
			}
		} else {
			if err := s.holdRepo.UpsertRackHold(tx, request.RackID, request.ProjectID, request.ProductID, request.RequestedHold); err != nil {
				return err
			}
		}

		// Full recomputation: the project aggregate is never patched
		// incrementally.
		total, err := s.holdRepo.SumRackHolds(tx, request.ProjectID, request.ProductID)
		if err != nil {
			return err
		}
		if total == 0 {
			return s.holdRepo.DeleteProjectHold(tx, request.ProjectID, request.ProductID)
		}
		return s.holdRepo.UpsertProjectHold(tx, request.ProjectID, request.ProductID, total)
	})

	now := time.Now()
	request.DecidedByUserID = &actor.ID
	request.DecidedAt = &now
	request.UpdatedBy = actor.ID

	if invErr != nil {
		request.Status = model.AdjFailed
		request.FailureReason = invErr.Error()
		if err := s.adjustmentRepo.SaveDecision(request); err != nil {
			log.Printf("adjustment %s: persist failed status: %v", request.ID, err)
		}
		return nil, &InventoryUpdateError{Err: invErr}
	}

	request.Status = model.AdjApproved
	if err := s.adjustmentRepo.SaveDecision(request); err != nil {
		return nil, err
	}

	result := &ApproveResult{
		Request:       request,
		PreviousStock: previousStock,
		NewStock:      request.RequestedStock,
		PreviousHold:  previousHold,
		NewHold:       request.RequestedHold,
	}

	go s.dispatchApprovalSideEffects(request, actor, result)

	return result, nil
}

// Reject records the decision without touching inventory.
func (s *adjustmentService) Reject(id uuid.UUID, reason string, actor Actor) (*model.StockAdjustmentRequest, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	request, err := s.adjustmentRepo.FindByID(id)
	if err != nil {
		return nil, ErrAdjustmentNotFound
	}
	if request.Status != model.AdjPending {
		return nil, ErrAdjustmentNotPending
	}

	now := time.Now()
	request.Status = model.AdjRejected
	request.RejectionReason = reason
	request.DecidedByUserID = &actor.ID
	request.DecidedAt = &now
	request.UpdatedBy = actor.ID
	if err := s.adjustmentRepo.SaveDecision(request); err != nil {
		return nil, err
	}

	go func() {
		entry := &model.ActivityLog{
			Action:       model.ActivityAdjustmentRejected,
			Message:      fmt.Sprintf("%s rejected stock adjustment: %s", actor.Name, reason),
			ActorID:      actor.ID,
			ActorName:    actor.Name,
			AdjustmentID: &request.ID,
			ProductID:    &request.ProductID,
			ProjectID:    &request.ProjectID,
			RackID:       &request.RackID,
		}
		if err := s.activityRepo.Create(entry); err != nil {
			log.Printf("adjustment %s: activity log failed: %v", request.ID, err)
		}
		s.notifyRequester(request, "Stock adjustment rejected", reason)
	}()

	return request, nil
}

func (s *adjustmentService) GetAll(status *model.AdjustmentStatus) ([]model.StockAdjustmentRequest, error) {
	return s.adjustmentRepo.FindAll(status)
}

func (s *adjustmentService) GetByID(id uuid.UUID) (*model.StockAdjustmentRequest, error) {
	req, err := s.adjustmentRepo.FindByID(id)
	if err != nil {
		return nil, ErrAdjustmentNotFound
	}
	return req, nil
}

// dispatchApprovalSideEffects records the approval event and the detailed
// before/after delta event, then notifies the requester. Best-effort.
func (s *adjustmentService) dispatchApprovalSideEffects(request *model.StockAdjustmentRequest, actor Actor, result *ApproveResult) {
	meta, _ := json.Marshal(map[string]interface{}{
		"previous_stock": result.PreviousStock,
		"new_stock":      result.NewStock,
		"previous_hold":  result.PreviousHold,
		"new_hold":       result.NewHold,
	})

	entries := []model.ActivityLog{
		{
			Action:       model.ActivityAdjustmentApproved,
			Message:      fmt.Sprintf("%s approved stock adjustment", actor.Name),
			ActorID:      actor.ID,
			ActorName:    actor.Name,
			AdjustmentID: &request.ID,
			ProductID:    &request.ProductID,
			ProjectID:    &request.ProjectID,
			RackID:       &request.RackID,
		},
		{
			Action:       model.ActivityAdjustmentDelta,
			Message:      fmt.Sprintf("on-hand %d -> %d, hold %d -> %d", result.PreviousStock, result.NewStock, result.PreviousHold, result.NewHold),
			ActorID:      actor.ID,
			ActorName:    actor.Name,
			AdjustmentID: &request.ID,
			ProductID:    &request.ProductID,
			ProjectID:    &request.ProjectID,
			RackID:       &request.RackID,
			Metadata:     datatypes.JSON(meta),
		},
	}
	if err := s.activityRepo.CreateBatch(entries); err != nil {
		log.Printf("adjustment %s: activity log failed: %v", request.ID, err)
	}

	s.notifyRequester(request, "Stock adjustment approved",
		fmt.Sprintf("On-hand set to %d, hold set to %d", result.NewStock, result.NewHold))
}

func (s *adjustmentService) notifyRequester(request *model.StockAdjustmentRequest, title, body string) {
	notice := Notice{
		Title: title,
		Body:  body,
		Payload: map[string]interface{}{
			"type":          "adjustment",
			"adjustment_id": request.ID,
			"status":        request.Status,
		},
	}
	if requesterID, err := uuid.Parse(request.RequestedByUserID); err == nil {
		notice.TargetUsers = []uuid.UUID{requesterID}
	} else {
		notice.TargetRole = model.RoleManager
	}
	s.notifications.Publish(notice)
}
