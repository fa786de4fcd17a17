package model

import (
	"time"

	"github.com/google/uuid"
)

type AdjustmentStatus string

const (
	AdjPending  AdjustmentStatus = "pending"
	AdjApproved AdjustmentStatus = "approved"
	AdjRejected AdjustmentStatus = "rejected"
	AdjFailed   AdjustmentStatus = "failed"
)

// StockAdjustmentRequest is a manager-submitted correction of a rack's
// on-hand and held quantities, decided once by an admin. Status failed is
// reachable only from an approval whose rack write did not commit.
type StockAdjustmentRequest struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	RackID    uuid.UUID `gorm:"type:uuid;not null;index" json:"rack_id"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Rack    *Rack    `gorm:"foreignKey:RackID" json:"rack,omitempty"`

	RequestedStock int    `gorm:"not null" json:"requested_stock" validate:"gte=0"` // on-hand overwrite value
	RequestedHold  int    `gorm:"not null" json:"requested_hold" validate:"gte=0"`
	Reason         string `gorm:"type:text" json:"reason" validate:"required"`

	Status AdjustmentStatus `gorm:"type:varchar(15);not null;index" json:"status"`

	RequestedByUserID string  `gorm:"type:varchar(255)" json:"requested_by_user_id"`
	RequestedByUser   *User   `gorm:"foreignKey:RequestedByUserID;references:ID" json:"requested_by_user,omitempty"`
	DecidedByUserID   *string `gorm:"type:varchar(255)" json:"decided_by_user_id,omitempty"`
	DecidedByUser     *User   `gorm:"foreignKey:DecidedByUserID;references:ID" json:"decided_by_user,omitempty"`

	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	FailureReason   string     `gorm:"type:text" json:"failure_reason,omitempty"`
}
