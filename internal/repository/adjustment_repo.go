package repository

import (
	"go-rackstock-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdjustmentRepository interface {
	Create(req *model.StockAdjustmentRequest) error
	FindAll(status *model.AdjustmentStatus) ([]model.StockAdjustmentRequest, error)
	FindByID(id uuid.UUID) (*model.StockAdjustmentRequest, error)
	SaveDecision(req *model.StockAdjustmentRequest) error
}

type adjustmentRepo struct {
	db *gorm.DB
}

func NewAdjustmentRepo(db *gorm.DB) AdjustmentRepository {
	return &adjustmentRepo{db}
}

func (r *adjustmentRepo) Create(req *model.StockAdjustmentRequest) error {
	return r.db.Create(req).Error
}

func (r *adjustmentRepo) FindAll(status *model.AdjustmentStatus) ([]model.StockAdjustmentRequest, error) {
	var requests []model.StockAdjustmentRequest
	q := r.db.
		Preload("Product").
		Preload("Rack").
		Preload("RequestedByUser").
		Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Find(&requests).Error
	return requests, err
}

func (r *adjustmentRepo) FindByID(id uuid.UUID) (*model.StockAdjustmentRequest, error) {
	var req model.StockAdjustmentRequest
	err := r.db.
		Preload("Product").
		Preload("Project").
		Preload("Rack").
		Preload("RequestedByUser").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// SaveDecision persists the one-shot approve/reject/fail outcome.
func (r *adjustmentRepo) SaveDecision(req *model.StockAdjustmentRequest) error {
	return r.db.Model(&model.StockAdjustmentRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":              req.Status,
			"decided_by_user_id":  req.DecidedByUserID,
			"decided_at":          req.DecidedAt,
			"rejection_reason":    req.RejectionReason,
			"failure_reason":      req.FailureReason,
			"updated_by":          req.UpdatedBy,
		}).Error
}
