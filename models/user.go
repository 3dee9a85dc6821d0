package models

import "time"

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Valid reports whether a is one of the four CRUD actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// PermissionRecord grants a set of actions on one entity, e.g. {"Game", ["read"]}.
type PermissionRecord struct {
	Entity  string   `json:"entity" db:"entity"`
	Actions []Action `json:"actions" db:"actions"`
}

type User struct {
	ID           int                `json:"id" db:"id"`
	Email        string             `json:"email" db:"email"`
	PasswordHash string             `json:"-" db:"password_hash"`
	Role         UserRole           `json:"role" db:"role"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`
	Permissions  []PermissionRecord `json:"permissions,omitempty" db:"-"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
