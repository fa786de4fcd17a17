package service

import (
	"errors"

	"go-rackstock-ws/internal/model"
)

var ErrForbidden = errors.New("forbidden for this role")

// Actor is the authenticated identity a request runs as, as extracted from
// the JWT claims by the auth middleware.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func (a Actor) IsAdmin() bool   { return a.Role == model.RoleAdmin }
func (a Actor) IsManager() bool { return a.Role == model.RoleManager }
