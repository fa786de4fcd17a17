package model

import "github.com/google/uuid"

// Project groups racks and the people allowed to work with them. A rack
// belongs to exactly one project.
type Project struct {
	BaseModel
	Name  string `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Color string `gorm:"type:varchar(20)" json:"color"`

	Racks    []Rack `gorm:"foreignKey:ProjectID" json:"racks,omitempty"`
	Members  []User `gorm:"many2many:project_members;" json:"members,omitempty"`
	Managers []User `gorm:"many2many:project_managers;" json:"managers,omitempty"`
}

// HasRack reports whether the rack is in this project's rack list.
func (p *Project) HasRack(rackID uuid.UUID) bool {
	for i := range p.Racks {
		if p.Racks[i].ID == rackID {
			return true
		}
	}
	return false
}

// HasManager reports whether the user manages this project.
func (p *Project) HasManager(userID uuid.UUID) bool {
	for i := range p.Managers {
		if p.Managers[i].ID == userID {
			return true
		}
	}
	return false
}
