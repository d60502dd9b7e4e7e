package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "active"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// Valid reports whether the status is one of the declared values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusActive, TicketStatusPending, TicketStatusClosed:
		return true
	}
	return false
}

// Ticket is the aggregate for a support case. It is owned by exactly
// one customer, set at creation and never reassigned. Notes and
// comments are append-only logs embedded in the aggregate; every append
// refreshes UpdatedAt.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	CustomerID  string
	AssigneeID  *string
	Notes       []Note
	Comments    []Comment
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Note is an annotation on a ticket, optionally carrying attachments.
// Notes are never edited or removed.
type Note struct {
	ID          string
	TicketID    string
	AuthorID    string
	Content     string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment stores metadata for a file attached to a note. The file
// body itself lives in external storage under StoragePath.
type Attachment struct {
	ID          string
	NoteID      string
	FileName    string
	StoragePath string
	SizeBytes   int64
	MimeType    string
	CreatedAt   time.Time
}

// Comment is a plain text annotation on a ticket, no attachments.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}
