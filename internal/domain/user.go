package domain

import "time"

// Role is the closed set of access roles an account can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the declared values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// User is the account record for customers, agents and admins alike.
// The role field is the only thing separating staff from end-users.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor is the authenticated identity attached to a request. It carries
// just enough for access decisions; handlers resolve the full User when
// they need profile fields.
type Actor struct {
	ID   string
	Role Role
}
