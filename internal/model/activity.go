package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity log actions.
const (
	ActivityMovementRecorded   = "movement_recorded"
	ActivityStockDelta         = "stock_delta"
	ActivityOrderCompleted     = "order_completed"
	ActivityOrderCancelled     = "order_cancelled"
	ActivityAdjustmentApproved = "adjustment_approved"
	ActivityAdjustmentRejected = "adjustment_rejected"
	ActivityAdjustmentDelta    = "adjustment_delta"
)

// ActivityLog is an append-only audit entry. Writes are best-effort side
// effects and never block or roll back the mutation they describe.
type ActivityLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Action    string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	ActorID   string    `gorm:"type:varchar(255)" json:"actor_id"`
	ActorName string    `gorm:"type:varchar(255)" json:"actor_name"`

	TransactionID *uuid.UUID `gorm:"type:uuid;index" json:"transaction_id,omitempty"`
	AdjustmentID  *uuid.UUID `gorm:"type:uuid;index" json:"adjustment_id,omitempty"`
	ProductID     *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	ProjectID     *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	RackID        *uuid.UUID `gorm:"type:uuid" json:"rack_id,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
