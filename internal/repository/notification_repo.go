package repository

import (
	"go-rackstock-ws/internal/model"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(n *model.Notification) error
	FindRecent(limit int) ([]model.Notification, error)
}

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db}
}

func (r *notificationRepo) Create(n *model.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepo) FindRecent(limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	var notifications []model.Notification
	err := r.db.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}
