package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is one row of the activity feed. Targeting is either a role
// code, an explicit user-id list, or neither (visible to everyone).
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TargetRole string         `gorm:"type:varchar(50);index" json:"target_role,omitempty"`
	TargetUser datatypes.JSON `json:"target_users,omitempty"` // JSON array of user id strings
	Title      string         `gorm:"type:varchar(255);not null" json:"title"`
	Body       string         `gorm:"type:text" json:"body"`
	Payload    datatypes.JSON `json:"payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SetTargetUsers stores the explicit recipient list.
func (n *Notification) SetTargetUsers(ids []uuid.UUID) error {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	raw, err := json.Marshal(strs)
	if err != nil {
		return err
	}
	n.TargetUser = datatypes.JSON(raw)
	return nil
}

// VisibleTo reports whether a user with the given id and role should see this
// notification.
func (n *Notification) VisibleTo(userID uuid.UUID, roleCode string) bool {
	if n.TargetRole == "" && len(n.TargetUser) == 0 {
		return true
	}
	if n.TargetRole != "" && n.TargetRole == roleCode {
		return true
	}
	if len(n.TargetUser) > 0 {
		var ids []string
		if err := json.Unmarshal(n.TargetUser, &ids); err == nil {
			for _, s := range ids {
				if s == userID.String() {
					return true
				}
			}
		}
	}
	return false
}
