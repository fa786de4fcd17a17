package repository

import (
	"time"

	"go-rackstock-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovementData untuk chart data
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts      int64 `json:"total_products"`
	TotalRacks         int64 `json:"total_racks"`
	PendingOrders      int64 `json:"pending_orders"`
	PendingAdjustments int64 `json:"pending_adjustments"`
}

type TransactionRepository interface {
	Create(tx *gorm.DB, transaction *model.Transaction) error
	FindAll() ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	CodeExists(code string) (bool, error)
	SaveStatus(transaction *model.Transaction) error
	SaveCompletion(transaction *model.Transaction) error
	MarkEmailSent(transactionID uuid.UUID, category string) (bool, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats() (*DashboardStats, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

// Create persists the transaction and its items through the given handle so
// it can share a database transaction with the rack writes.
func (r *transactionRepo) Create(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Create(transaction).Error
}

func (r *transactionRepo) FindAll() ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("CreatedByUser").
		Order("created_at DESC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.
		Preload("Items").
		Preload("Items.Product").
		Preload("Items.Rack").
		Preload("CreatedByUser").
		First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Transaction{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// SaveStatus persists a status transition (and its timestamp fields).
func (r *transactionRepo) SaveStatus(transaction *model.Transaction) error {
	return r.db.Model(&model.Transaction{}).
		Where("id = ?", transaction.ID).
		Updates(map[string]interface{}{
			"status":       transaction.Status,
			"completed_at": transaction.CompletedAt,
			"cancelled_at": transaction.CancelledAt,
			"updated_by":   transaction.UpdatedBy,
		}).Error
}

// SaveCompletion persists the status transition together with the per-item
// stock snapshots captured while applying deltas at completion time.
func (r *transactionRepo) SaveCompletion(transaction *model.Transaction) error {
	if err := r.SaveStatus(transaction); err != nil {
		return err
	}
	for i := range transaction.Items {
		it := &transaction.Items[i]
		err := r.db.Model(&model.TransactionItem{}).
			Where("id = ?", it.ID).
			Updates(map[string]interface{}{
				"previous_stock": it.PreviousStock,
				"new_stock":      it.NewStock,
			}).Error
		if err != nil {
			return err
		}
	}
	// Keep the flattened root copy in sync for single-item orders.
	if len(transaction.Items) == 1 {
		transaction.Flatten()
		return r.db.Model(&model.Transaction{}).
			Where("id = ?", transaction.ID).
			Updates(map[string]interface{}{
				"previous_stock": transaction.PreviousStock,
				"new_stock":      transaction.NewStock,
			}).Error
	}
	return nil
}

// MarkEmailSent is the compare-and-set behind the email idempotency guard.
// It returns true exactly once per (transaction, category): a second call
// hits the primary key conflict and reports false.
func (r *transactionRepo) MarkEmailSent(transactionID uuid.UUID, category string) (bool, error) {
	marker := model.TransactionEmailMarker{
		TransactionID: transactionID,
		Category:      category,
		SentAt:        time.Now(),
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *transactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData

	rows, err := r.db.Model(&model.TransactionItem{}).
		Select(`
			DATE(transaction_items.created_at) as date,
			COALESCE(SUM(CASE WHEN transactions.direction = 'in' THEN transaction_items.quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN transactions.direction = 'out' THEN transaction_items.quantity ELSE 0 END), 0) as outbound
		`).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Where("transactions.status = ?", model.TxCompleted).
		Where("transaction_items.created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(transaction_items.created_at)").
		Order("date ASC").
		Rows()

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data StockMovementData
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, nil
}

func (r *transactionRepo) GetDashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	r.db.Model(&model.Product{}).Count(&stats.TotalProducts)
	r.db.Model(&model.Rack{}).Count(&stats.TotalRacks)
	r.db.Model(&model.Transaction{}).Where("status = ?", model.TxPending).Count(&stats.PendingOrders)
	r.db.Model(&model.StockAdjustmentRequest{}).Where("status = ?", model.AdjPending).Count(&stats.PendingAdjustments)

	return &stats, nil
}
