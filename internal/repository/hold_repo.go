package repository

import (
	"time"

	"go-rackstock-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HoldRepository interface {
	UpsertRackHold(tx *gorm.DB, rackID, projectID, productID uuid.UUID, held int) error
	DeleteRackHold(tx *gorm.DB, rackID, productID uuid.UUID) error
	SumRackHolds(tx *gorm.DB, projectID, productID uuid.UUID) (int, error)
	UpsertProjectHold(tx *gorm.DB, projectID, productID uuid.UUID, held int) error
	DeleteProjectHold(tx *gorm.DB, projectID, productID uuid.UUID) error
	FindRackHolds(projectID uuid.UUID) ([]model.RackStockHold, error)
	FindProjectHolds(projectID uuid.UUID) ([]model.ProjectStockHold, error)
	GetProjectHold(projectID, productID uuid.UUID) (*model.ProjectStockHold, error)
	GetRackHold(rackID, productID uuid.UUID) (*model.RackStockHold, error)
}

type holdRepo struct {
	db *gorm.DB
}

func NewHoldRepo(db *gorm.DB) HoldRepository {
	return &holdRepo{db}
}

func (r *holdRepo) UpsertRackHold(tx *gorm.DB, rackID, projectID, productID uuid.UUID, held int) error {
	hold := model.RackStockHold{
		RackID:       rackID,
		ProjectID:    projectID,
		ProductID:    productID,
		HeldQuantity: held,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "rack_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"held_quantity": held,
			"updated_at":    time.Now(),
		}),
	}).Create(&hold).Error
}

func (r *holdRepo) DeleteRackHold(tx *gorm.DB, rackID, productID uuid.UUID) error {
	return tx.Where("rack_id = ? AND product_id = ?", rackID, productID).
		Delete(&model.RackStockHold{}).Error
}

// SumRackHolds totals every rack-level hold for one (project, product) pair.
// The project aggregate is always derived from this full sum.
func (r *holdRepo) SumRackHolds(tx *gorm.DB, projectID, productID uuid.UUID) (int, error) {
	var total int64
	err := tx.Model(&model.RackStockHold{}).
		Where("project_id = ? AND product_id = ?", projectID, productID).
		Select("COALESCE(SUM(held_quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *holdRepo) UpsertProjectHold(tx *gorm.DB, projectID, productID uuid.UUID, held int) error {
	hold := model.ProjectStockHold{
		ProjectID:    projectID,
		ProductID:    productID,
		HeldQuantity: held,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"held_quantity": held,
			"updated_at":    time.Now(),
		}),
	}).Create(&hold).Error
}

func (r *holdRepo) DeleteProjectHold(tx *gorm.DB, projectID, productID uuid.UUID) error {
	return tx.Where("project_id = ? AND product_id = ?", projectID, productID).
		Delete(&model.ProjectStockHold{}).Error
}

func (r *holdRepo) FindRackHolds(projectID uuid.UUID) ([]model.RackStockHold, error) {
	var holds []model.RackStockHold
	err := r.db.Where("project_id = ?", projectID).Find(&holds).Error
	return holds, err
}

func (r *holdRepo) FindProjectHolds(projectID uuid.UUID) ([]model.ProjectStockHold, error) {
	var holds []model.ProjectStockHold
	err := r.db.Where("project_id = ?", projectID).Find(&holds).Error
	return holds, err
}

func (r *holdRepo) GetProjectHold(projectID, productID uuid.UUID) (*model.ProjectStockHold, error) {
	var hold model.ProjectStockHold
	err := r.db.Where("project_id = ? AND product_id = ?", projectID, productID).First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *holdRepo) GetRackHold(rackID, productID uuid.UUID) (*model.RackStockHold, error) {
	var hold model.RackStockHold
	err := r.db.Where("rack_id = ? AND product_id = ?", rackID, productID).First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}
