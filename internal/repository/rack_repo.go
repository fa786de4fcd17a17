package repository

import (
	"errors"
	"time"

	"go-rackstock-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleRack means a products write matched zero rows: the rack changed (or
// disappeared) between the read and the write. Callers re-read and retry once
// before surfacing a conflict.
var ErrStaleRack = errors.New("rack was modified concurrently")

type RackRepository interface {
	Create(rack *model.Rack) error
	FindAll(projectID *uuid.UUID) ([]model.Rack, error)
	FindByID(id uuid.UUID) (*model.Rack, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Rack, error)
	Update(rack *model.Rack) error
	UpdateProducts(tx *gorm.DB, rack *model.Rack) error
}

type rackRepo struct {
	db *gorm.DB
}

func NewRackRepo(db *gorm.DB) RackRepository {
	return &rackRepo{db}
}

func (r *rackRepo) Create(rack *model.Rack) error {
	return r.db.Create(rack).Error
}

func (r *rackRepo) FindAll(projectID *uuid.UUID) ([]model.Rack, error) {
	var racks []model.Rack
	q := r.db.Order("rack_number ASC")
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	err := q.Find(&racks).Error
	return racks, err
}

func (r *rackRepo) FindByID(id uuid.UUID) (*model.Rack, error) {
	return r.FindByIDTx(r.db, id)
}

// FindByIDTx reads through the given handle so callers inside a database
// transaction see their own writes.
func (r *rackRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Rack, error) {
	var rack model.Rack
	err := tx.First(&rack, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rack, nil
}

// Update saves rack metadata (number, project). The products column is only
// ever written through UpdateProducts.
func (r *rackRepo) Update(rack *model.Rack) error {
	return r.db.Model(&model.Rack{}).
		Where("id = ?", rack.ID).
		Updates(map[string]interface{}{
			"rack_number": rack.RackNumber,
			"project_id":  rack.ProjectID,
			"updated_by":  rack.UpdatedBy,
		}).Error
}

// UpdateProducts writes the products list with a compare-and-set on the
// version column. Returns ErrStaleRack when the write matched nothing, so the
// caller can re-derive current stock and try again.
func (r *rackRepo) UpdateProducts(tx *gorm.DB, rack *model.Rack) error {
	res := tx.Model(&model.Rack{}).
		Where("id = ? AND version = ?", rack.ID, rack.Version).
		Updates(map[string]interface{}{
			"products":   rack.Products,
			"version":    rack.Version + 1,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleRack
	}
	rack.Version++
	return nil
}
