package entities

import "strings"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Actor is the authenticated caller forwarded by the API gateway.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) Valid() bool {
	return strings.TrimSpace(a.UserID) != ""
}

// CanManageRubrics reports whether the actor may create or edit templates.
func (a Actor) CanManageRubrics() bool {
	return a.Valid() && (a.Role == RoleTeacher || a.Role == RoleAdmin)
}
