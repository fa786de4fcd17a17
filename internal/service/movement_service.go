package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"
	"go-rackstock-ws/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCodeCollision = errors.New("could not generate a unique transaction code")

type CreateMovementRequest struct {
	Direction     string          `json:"direction" validate:"required,oneof=in out"`
	OrderMode     bool            `json:"order_mode"`
	InvoiceNumber string          `json:"invoice_number"`
	SupplierName  string          `json:"supplier_name"`
	Message       string          `json:"message"`
	Items         []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

type MovementService interface {
	CreateMovement(req *CreateMovementRequest, actor Actor) (*model.Transaction, error)
	GetAllTransactions() ([]model.Transaction, error)
	GetTransactionByID(id uuid.UUID) (*model.Transaction, error)
}

type movementService struct {
	resolver        *EntityResolver
	updater         *RackUpdater
	transactionRepo repository.TransactionRepository
	activityRepo    repository.ActivityRepository
	notifications   NotificationService
	emails          *EmailDispatcher
	db              *gorm.DB
}

func NewMovementService(
	resolver *EntityResolver,
	updater *RackUpdater,
	transactionRepo repository.TransactionRepository,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
	emails *EmailDispatcher,
	db *gorm.DB,
) MovementService {
	return &movementService{
		resolver:        resolver,
		updater:         updater,
		transactionRepo: transactionRepo,
		activityRepo:    activityRepo,
		notifications:   notifications,
		emails:          emails,
		db:              db,
	}
}

// CreateMovement is the intake path for both movement modes.
//
// Direct mode validates the batch, applies every rack delta and persists the
// completed transaction in one database transaction. Order mode only
// validates and records the request as pending; rack stock is untouched until
// the order state machine completes it.
func (s *movementService) CreateMovement(req *CreateMovementRequest, actor Actor) (*model.Transaction, error) {
	// 1. Validate request shape
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	direction := model.TransactionDirection(req.Direction)

	// 2. Resolve references. All-or-nothing: any item error rejects the batch.
	resolved, itemErrors := s.resolver.ResolveBatch(req.Items, direction)
	if len(itemErrors) > 0 {
		return nil, &BatchValidationError{Items: itemErrors}
	}

	// 3. Generate a collision-checked transaction code
	code, err := s.generateCode(direction, req.OrderMode)
	if err != nil {
		return nil, err
	}

	status := model.TxCompleted
	if req.OrderMode {
		status = model.TxPending
	}

	transaction := &model.Transaction{
		Code:          code,
		Direction:     direction,
		OrderMode:     req.OrderMode,
		Status:        status,
		InvoiceNumber: req.InvoiceNumber,
		SupplierName:  req.SupplierName,
		Message:       req.Message,
	}
	transaction.CreatedBy = actor.ID
	transaction.UpdatedBy = actor.ID
	transaction.CreatedByUserID = &actor.ID
	if status == model.TxCompleted {
		now := time.Now()
		transaction.CompletedAt = &now
	}

	// 4. Apply deltas (direct mode) and persist, atomically
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range resolved {
			line := model.TransactionItem{
				ProductID: item.Product.ID,
				ProjectID: item.Project.ID,
				RackID:    item.Rack.ID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.Price,
			}

			if req.OrderMode {
				// Pending orders record the request only. Snapshots hold the
				// stock as of creation; completion overwrites them with the
				// values captured at mutation time.
				stock, _ := item.Rack.StockOf(item.Product.ID)
				line.PreviousStock = stock
				line.NewStock = stock
			} else {
				prev, next, err := s.updater.ApplyDelta(tx, item.Rack.ID, item.Product.ID, direction, item.Quantity)
				if err != nil {
					return err
				}
				line.PreviousStock = prev
				line.NewStock = next
			}

			transaction.Items = append(transaction.Items, line)
		}

		transaction.Flatten()
		return s.transactionRepo.Create(tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	// 5. Side effects: best effort, never roll back the transaction
	go s.dispatchMovementSideEffects(transaction, actor)

	return transaction, nil
}

func (s *movementService) GetAllTransactions() ([]model.Transaction, error) {
	return s.transactionRepo.FindAll()
}

func (s *movementService) GetTransactionByID(id uuid.UUID) (*model.Transaction, error) {
	return s.transactionRepo.FindByID(id)
}

// generateCode builds "<IN|OUT>-<DIR|ORD>-<timestamp>" and collision-checks
// it against existing codes, appending a sequence suffix when needed.
func (s *movementService) generateCode(direction model.TransactionDirection, orderMode bool) (string, error) {
	dir := "IN"
	if direction == model.DirectionOut {
		dir = "OUT"
	}
	mode := "DIR"
	if orderMode {
		mode = "ORD"
	}
	base := fmt.Sprintf("%s-%s-%s", dir, mode, time.Now().Format("20060102150405"))

	for n := 0; n < 10; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		exists, err := s.transactionRepo.CodeExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrCodeCollision
}

// dispatchMovementSideEffects writes the activity entries, publishes the
// role-targeted notification and sends the one guarded email. Each effect
// logs and swallows its own failure.
func (s *movementService) dispatchMovementSideEffects(transaction *model.Transaction, actor Actor) {
	verb := "added"
	if transaction.Direction == model.DirectionOut {
		verb = "removed"
	}

	// Per-item entries plus one aggregate entry
	entries := make([]model.ActivityLog, 0, len(transaction.Items)+1)
	for i := range transaction.Items {
		item := &transaction.Items[i]
		entries = append(entries, model.ActivityLog{
			Action:        model.ActivityStockDelta,
			Message:       fmt.Sprintf("%s %s %d units (stock %d -> %d)", actor.Name, verb, item.Quantity, item.PreviousStock, item.NewStock),
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			TransactionID: &transaction.ID,
			ProductID:     &item.ProductID,
			ProjectID:     &item.ProjectID,
			RackID:        &item.RackID,
		})
	}
	entries = append(entries, model.ActivityLog{
		Action:        model.ActivityMovementRecorded,
		Message:       fmt.Sprintf("%s recorded %s movement %s with %d item(s)", actor.Name, transaction.Direction, transaction.Code, len(transaction.Items)),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		TransactionID: &transaction.ID,
	})
	if err := s.activityRepo.CreateBatch(entries); err != nil {
		log.Printf("movement %s: activity log failed: %v", transaction.Code, err)
	}

	s.notifications.Publish(Notice{
		TargetRole: model.RoleAdmin,
		Title:      "Stock movement recorded",
		Body:       fmt.Sprintf("%s recorded %s (%s, %d items)", actor.Name, transaction.Code, transaction.Status, len(transaction.Items)),
		Payload: map[string]interface{}{
			"type":           "stock_update",
			"action":         "movement_recorded",
			"transaction_id": transaction.ID,
			"code":           transaction.Code,
			"status":         transaction.Status,
		},
	})

	s.emails.SendTransactionEmail(transaction, model.EmailMovementRecorded, nil)
}
