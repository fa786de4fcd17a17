package repository

import (
	"go-rackstock-ws/internal/model"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(entry *model.ActivityLog) error
	CreateBatch(entries []model.ActivityLog) error
	FindRecent(limit int) ([]model.ActivityLog, error)
}

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db}
}

func (r *activityRepo) Create(entry *model.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *activityRepo) CreateBatch(entries []model.ActivityLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.Create(&entries).Error
}

func (r *activityRepo) FindRecent(limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.ActivityLog
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
