// Package policy centralizes every access decision over tickets.
// Ownership-based visibility has to hold identically on the read path
// and on every customer-restricted mutation; keeping the rules in one
// place prevents the read and write checks from drifting apart.
package policy

import "github.com/spec-kit/support-desk/internal/domain"

// CanViewTicket decides whether the actor may read a ticket. Customers
// only see tickets they own; agents and admins see everything.
func CanViewTicket(actor domain.Actor, customerID string) bool {
	if actor.Role == domain.RoleCustomer {
		return actor.ID == customerID
	}
	return true
}

// CanAnnotate decides whether the actor may append a note or comment.
// Same ownership rule as viewing: a customer may only annotate their
// own tickets, staff may annotate any ticket.
func CanAnnotate(actor domain.Actor, customerID string) bool {
	return CanViewTicket(actor, customerID)
}

// CanUpdateStatus decides whether the actor may change ticket status.
// Denied for customers unconditionally, ownership does not matter.
func CanUpdateStatus(actor domain.Actor) bool {
	return actor.Role == domain.RoleAgent || actor.Role == domain.RoleAdmin
}

// CanAssign decides whether the actor may assign tickets to agents.
func CanAssign(actor domain.Actor) bool {
	return actor.Role == domain.RoleAdmin
}

// VisibilityFilter returns the customer id that listings must be
// restricted to, or nil when the actor sees all tickets.
func VisibilityFilter(actor domain.Actor) *string {
	if actor.Role == domain.RoleCustomer {
		id := actor.ID
		return &id
	}
	return nil
}
