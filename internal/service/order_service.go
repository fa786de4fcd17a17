package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-rackstock-ws/internal/document"
	"go-rackstock-ws/internal/mailer"
	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrNotOrderMode        = errors.New("transaction is not an order")
	ErrNotPending          = errors.New("transaction is not pending")
)

// CompletionWarning is one per-item failure during a completion pass that did
// not block the batch's overall transition.
type CompletionWarning struct {
	Index     int       `json:"index"`
	ProductID uuid.UUID `json:"product_id"`
	RackID    uuid.UUID `json:"rack_id"`
	Reason    string    `json:"reason"`
}

type CompleteOrderResult struct {
	Transaction *model.Transaction  `json:"transaction"`
	Warnings    []CompletionWarning `json:"warnings,omitempty"`
}

// OrderService governs the pending -> completed/cancelled lifecycle of
// order-mode transactions. Completion is the point where rack stock actually
// moves; creation only recorded the request.
type OrderService interface {
	CompleteOrder(id uuid.UUID, actor Actor) (*CompleteOrderResult, error)
	CancelOrder(id uuid.UUID, actor Actor) (*model.Transaction, error)
}

type orderService struct {
	updater         *RackUpdater
	transactionRepo repository.TransactionRepository
	rackRepo        repository.RackRepository
	productRepo     repository.ProductRepository
	activityRepo    repository.ActivityRepository
	notifications   NotificationService
	emails          *EmailDispatcher
	db              *gorm.DB
}

func NewOrderService(
	updater *RackUpdater,
	transactionRepo repository.TransactionRepository,
	rackRepo repository.RackRepository,
	productRepo repository.ProductRepository,
	activityRepo repository.ActivityRepository,
	notifications NotificationService,
	emails *EmailDispatcher,
	db *gorm.DB,
) OrderService {
	return &orderService{
		updater:         updater,
		transactionRepo: transactionRepo,
		rackRepo:        rackRepo,
		productRepo:     productRepo,
		activityRepo:    activityRepo,
		notifications:   notifications,
		emails:          emails,
		db:              db,
	}
}

// CompleteOrder re-resolves every line item and re-applies the rack updater
// at completion time. Per-item failures become warnings; the batch still
// completes when at least one item succeeded. A pass with zero successes
// moves the transaction to failed instead.
func (s *orderService) CompleteOrder(id uuid.UUID, actor Actor) (*CompleteOrderResult, error) {
	// 1. Only admins complete orders
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	// 2. Load and gate on state
	transaction, err := s.transactionRepo.FindByID(id)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	if !transaction.OrderMode {
		return nil, ErrNotOrderMode
	}
	if transaction.Status != model.TxPending {
		return nil, ErrNotPending
	}

	// 3. Best-effort batch: each item applies in its own database
	// transaction so one failing item cannot undo the others.
	var warnings []CompletionWarning
	applied := 0
	for i := range transaction.Items {
		item := &transaction.Items[i]

		if _, err := s.productRepo.FindByID(item.ProductID); err != nil {
			warnings = append(warnings, warning(i, item, "product no longer exists"))
			continue
		}
		if _, err := s.rackRepo.FindByID(item.RackID); err != nil {
			warnings = append(warnings, warning(i, item, "rack no longer exists"))
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			prev, next, err := s.updater.ApplyDelta(tx, item.RackID, item.ProductID, transaction.Direction, item.Quantity)
			if err != nil {
				return err
			}
			// Snapshots are captured at the moment of mutation.
			item.PreviousStock = prev
			item.NewStock = next
			return nil
		})
		if err != nil {
			warnings = append(warnings, warning(i, item, err.Error()))
			continue
		}
		applied++
	}

	// 4. Transition
	now := time.Now()
	if applied > 0 {
		transaction.Status = model.TxCompleted
		transaction.CompletedAt = &now
	} else {
		transaction.Status = model.TxFailed
	}
	transaction.UpdatedBy = actor.ID
	if err := s.transactionRepo.SaveCompletion(transaction); err != nil {
		return nil, err
	}

	// 5. Side effects
	go s.dispatchCompletionSideEffects(transaction, actor, len(warnings))

	return &CompleteOrderResult{Transaction: transaction, Warnings: warnings}, nil
}

// CancelOrder rejects anything that is not pending and never touches rack
// stock. Allowed for admins and the user who created the order.
func (s *orderService) CancelOrder(id uuid.UUID, actor Actor) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(id)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	if !actor.IsAdmin() && (transaction.CreatedByUserID == nil || *transaction.CreatedByUserID != actor.ID) {
		return nil, ErrForbidden
	}
	if !transaction.OrderMode {
		return nil, ErrNotOrderMode
	}
	if transaction.Status != model.TxPending {
		return nil, ErrNotPending
	}

	now := time.Now()
	transaction.Status = model.TxCancelled
	transaction.CancelledAt = &now
	transaction.UpdatedBy = actor.ID
	if err := s.transactionRepo.SaveStatus(transaction); err != nil {
		return nil, err
	}

	go func() {
		entry := &model.ActivityLog{
			Action:        model.ActivityOrderCancelled,
			Message:       fmt.Sprintf("%s cancelled order %s", actor.Name, transaction.Code),
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			TransactionID: &transaction.ID,
		}
		if err := s.activityRepo.Create(entry); err != nil {
			log.Printf("order %s: activity log failed: %v", transaction.Code, err)
		}
		s.notifications.Publish(Notice{
			TargetRole: model.RoleAdmin,
			Title:      "Order cancelled",
			Body:       fmt.Sprintf("%s cancelled order %s", actor.Name, transaction.Code),
			Payload: map[string]interface{}{
				"type":           "stock_update",
				"action":         "order_cancelled",
				"transaction_id": transaction.ID,
				"code":           transaction.Code,
			},
		})
	}()

	return transaction, nil
}

func warning(index int, item *model.TransactionItem, reason string) CompletionWarning {
	return CompletionWarning{
		Index:     index,
		ProductID: item.ProductID,
		RackID:    item.RackID,
		Reason:    reason,
	}
}

// dispatchCompletionSideEffects generates the delivery document, mails it
// once and records audit/notification entries. All best-effort: the status
// transition is already committed.
func (s *orderService) dispatchCompletionSideEffects(transaction *model.Transaction, actor Actor, warningCount int) {
	entry := &model.ActivityLog{
		Action:        model.ActivityOrderCompleted,
		Message:       fmt.Sprintf("%s completed order %s (%d item(s), %d warning(s))", actor.Name, transaction.Code, len(transaction.Items), warningCount),
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		TransactionID: &transaction.ID,
	}
	if err := s.activityRepo.Create(entry); err != nil {
		log.Printf("order %s: activity log failed: %v", transaction.Code, err)
	}

	s.notifications.Publish(Notice{
		TargetRole: model.RoleKeeper,
		Title:      "Order completed",
		Body:       fmt.Sprintf("Order %s is %s", transaction.Code, transaction.Status),
		Payload: map[string]interface{}{
			"type":           "stock_update",
			"action":         "order_completed",
			"transaction_id": transaction.ID,
			"code":           transaction.Code,
			"status":         transaction.Status,
		},
	})

	if transaction.Status != model.TxCompleted {
		return
	}

	var attachments []mailer.Attachment
	if doc, err := document.RenderDeliveryDocument(transaction); err != nil {
		log.Printf("order %s: delivery document failed: %v", transaction.Code, err)
	} else {
		attachments = append(attachments, mailer.Attachment{
			Filename: fmt.Sprintf("delivery-%s.pdf", transaction.Code),
			Content:  doc,
		})
	}
	s.emails.SendTransactionEmail(transaction, model.EmailOrderCompleted, attachments)
}
