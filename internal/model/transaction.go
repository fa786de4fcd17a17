package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionDirection string

const (
	DirectionIn  TransactionDirection = "in"
	DirectionOut TransactionDirection = "out"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxCancelled TransactionStatus = "cancelled"
	TxFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further status transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TxCompleted || s == TxCancelled || s == TxFailed
}

// Email categories guarded by TransactionEmailMarker.
const (
	EmailMovementRecorded = "movement_recorded"
	EmailOrderCompleted   = "order_completed"
)

// Transaction is one immutable ledger record of a stock movement. Only the
// order state machine mutates it after creation, and only its status fields.
type Transaction struct {
	BaseModel
	Code      string               `gorm:"type:varchar(40);uniqueIndex;not null" json:"code"`
	Direction TransactionDirection `gorm:"type:varchar(5);not null" json:"direction" validate:"required,oneof=in out"`
	OrderMode bool                 `gorm:"not null;default:false" json:"order_mode"`
	Status    TransactionStatus    `gorm:"type:varchar(15);not null;index" json:"status"`

	InvoiceNumber string `gorm:"type:varchar(100)" json:"invoice_number"`
	SupplierName  string `gorm:"type:varchar(255)" json:"supplier_name"`
	Message       string `json:"message"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID" json:"items" validate:"-"`

	// Single-item transactions are additionally flattened onto the root, for
	// consumers written against the old one-item shape.
	ProductID     *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	ProjectID     *uuid.UUID `gorm:"type:uuid" json:"project_id,omitempty"`
	RackID        *uuid.UUID `gorm:"type:uuid" json:"rack_id,omitempty"`
	Quantity      *int       `json:"quantity,omitempty"`
	PreviousStock *int       `json:"previous_stock,omitempty"`
	NewStock      *int       `json:"new_stock,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedByUserID *string `gorm:"type:varchar(255)" json:"created_by_user_id,omitempty"`
	CreatedByUser   *User   `gorm:"foreignKey:CreatedByUserID;references:ID" json:"created_by_user,omitempty"`
}

// Flatten copies the line item onto the transaction root when there is
// exactly one. No-op otherwise.
func (t *Transaction) Flatten() {
	if len(t.Items) != 1 {
		return
	}
	it := t.Items[0]
	t.ProductID = &it.ProductID
	t.ProjectID = &it.ProjectID
	t.RackID = &it.RackID
	qty, prev, next := it.Quantity, it.PreviousStock, it.NewStock
	t.Quantity = &qty
	t.PreviousStock = &prev
	t.NewStock = &next
}

// TransactionItem is one (product, project, rack, quantity) line within a
// transaction, with previous/new stock captured at the moment of mutation.
type TransactionItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`

	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null" json:"project_id"`
	RackID    uuid.UUID `gorm:"type:uuid;not null" json:"rack_id"`

	Quantity      int             `gorm:"not null" json:"quantity"`
	PreviousStock int             `gorm:"not null" json:"previous_stock"`
	NewStock      int             `gorm:"not null" json:"new_stock"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(14,2);default:0" json:"unit_price"` // price snapshot at creation

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Rack    *Rack    `gorm:"foreignKey:RackID" json:"rack,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *TransactionItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TransactionEmailMarker is the persisted "already sent" flag: one row per
// (transaction, category). Insert-if-absent on this table is the idempotency
// guard for outbound mail, safe across multiple process instances.
type TransactionEmailMarker struct {
	TransactionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"transaction_id"`
	Category      string    `gorm:"type:varchar(50);primaryKey" json:"category"`
	SentAt        time.Time `json:"sent_at"`
}
