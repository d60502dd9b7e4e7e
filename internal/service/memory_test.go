package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// In-memory repository doubles mirroring the Postgres contract the
// services rely on: pgx.ErrNoRows for absent rows, updated_at refresh
// on every persisted mutation, recency ordering on listings.

type memUserRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byID[user.ID] = *user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.byID[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.byID {
		result = append(result, user)
	}
	return result, nil
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.byID {
		if user.Role == role {
			result = append(result, user)
		}
	}
	return result, nil
}

func (r *memUserRepo) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, id := range ids {
		if user, ok := r.byID[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

type memTicketRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{byID: make(map[string]domain.Ticket)}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.byID[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := cloneTicket(ticket)
	return &clone, nil
}

func (r *memTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.byID {
		if filter.CustomerID != nil && ticket.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	// updated_at descending, matching the SQL ORDER BY
	for i := 1; i < len(result); i++ {
		for j := i; j > 0 && result[j].UpdatedAt.After(result[j-1].UpdatedAt); j-- {
			result[j], result[j-1] = result[j-1], result[j]
		}
	}
	return result, nil
}

func (r *memTicketRepo) UpdateStatus(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.UpdatedAt = time.Now()
	r.byID[ticket.ID] = stored
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memTicketRepo) UpdateAssignee(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.AssigneeID = ticket.AssigneeID
	stored.UpdatedAt = time.Now()
	r.byID[ticket.ID] = stored
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memTicketRepo) AppendNote(_ context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[note.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.seq++
	note.ID = fmt.Sprintf("note-%d", r.seq)
	note.CreatedAt = time.Now()
	for i := range note.Attachments {
		r.seq++
		note.Attachments[i].ID = fmt.Sprintf("att-%d", r.seq)
		note.Attachments[i].NoteID = note.ID
		note.Attachments[i].CreatedAt = note.CreatedAt
	}
	stored.Notes = append(stored.Notes, *note)
	stored.UpdatedAt = time.Now()
	r.byID[note.TicketID] = stored
	return nil
}

func (r *memTicketRepo) AppendComment(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[comment.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	stored.Comments = append(stored.Comments, *comment)
	stored.UpdatedAt = time.Now()
	r.byID[comment.TicketID] = stored
	return nil
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	clone := t
	clone.Notes = append([]domain.Note(nil), t.Notes...)
	clone.Comments = append([]domain.Comment(nil), t.Comments...)
	if t.AssigneeID != nil {
		id := *t.AssigneeID
		clone.AssigneeID = &id
	}
	return clone
}
