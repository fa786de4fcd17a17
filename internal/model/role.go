package model

// Role represents user roles in the system
type Role struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // ADMIN, MANAGER, KEEPER
	Name        string `gorm:"type:varchar(100)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Role codes as constants
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleKeeper  = "KEEPER"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Approves orders and stock adjustments, manages users",
	},
	{
		Code:        RoleManager,
		Name:        "Project Manager",
		Description: "Submits stock adjustment requests for own projects",
	},
	{
		Code:        RoleKeeper,
		Name:        "Warehouse Keeper",
		Description: "Records stock movements",
	},
}
