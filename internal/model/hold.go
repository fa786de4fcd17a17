package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RackStockHold is the held quantity for one (rack, product) pair. The
// project id is carried so the project-level aggregate can be recomputed with
// one query. Rows are deleted, not zeroed, when the hold drops to zero.
type RackStockHold struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RackID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rack_hold" json:"rack_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rack_hold" json:"product_id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	HeldQuantity int       `gorm:"not null" json:"held_quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *RackStockHold) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// ProjectStockHold is the derived project-level aggregate. Invariant: its
// held quantity equals the sum of all RackStockHold rows for the same
// (project, product) pair. It is always recomputed from scratch, never
// incrementally patched.
type ProjectStockHold struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_hold" json:"project_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_hold" json:"product_id"`
	HeldQuantity int       `gorm:"not null" json:"held_quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *ProjectStockHold) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
