package repository

import (
	"go-rackstock-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(project *model.Project) error
	FindAll() ([]model.Project, error)
	FindByID(id uuid.UUID) (*model.Project, error)
	Update(project *model.Project) error
	AddMember(projectID, userID uuid.UUID, asManager bool) error
}

type projectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db}
}

func (r *projectRepo) Create(project *model.Project) error {
	return r.db.Create(project).Error
}

func (r *projectRepo) FindAll() ([]model.Project, error) {
	var projects []model.Project
	err := r.db.Preload("Racks").Order("name ASC").Find(&projects).Error
	return projects, err
}

func (r *projectRepo) FindByID(id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.Preload("Racks").Preload("Members").Preload("Managers").First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) Update(project *model.Project) error {
	return r.db.Save(project).Error
}

func (r *projectRepo) AddMember(projectID, userID uuid.UUID, asManager bool) error {
	var project model.Project
	if err := r.db.First(&project, "id = ?", projectID).Error; err != nil {
		return err
	}
	var user model.User
	if err := r.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}
	assoc := "Members"
	if asManager {
		assoc = "Managers"
	}
	return r.db.Model(&project).Association(assoc).Append(&user)
}
