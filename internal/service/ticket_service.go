package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows, applying the access
// policy before every read and mutation.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// UserRef is the display projection of a referenced account.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NoteView is a note with its author resolved.
type NoteView struct {
	ID          string
	Content     string
	Author      UserRef
	Attachments []domain.Attachment
	CreatedAt   time.Time
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string
	Text      string
	Author    UserRef
	CreatedAt time.Time
}

// TicketView is a ticket with customer, assignee and annotation
// authors resolved to display fields. Listings carry the full
// document, notes and comments included.
type TicketView struct {
	ID          string
	Title       string
	Description string
	Status      domain.TicketStatus
	Customer    UserRef
	Assignee    *UserRef
	Notes       []NoteView
	Comments    []CommentView
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AttachmentInput defines attachment metadata for a new note.
type AttachmentInput struct {
	FileName    string
	StoragePath string
	SizeBytes   int64
	MimeType    string
}

// AssignmentSummary is the deliberately slim result of an assignment:
// ticket id, title and the resolved assignee, not the full document.
type AssignmentSummary struct {
	TicketID string
	Title    string
	Assignee UserRef
}

// Create constructs a ticket owned by the acting identity. The
// customer is always the actor; callers cannot create tickets on
// behalf of someone else.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, title, description string) (*TicketView, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(description) == "" {
		return nil, apperrors.NewValidationError("title and description required")
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusActive,
		CustomerID:  actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError("Error creating ticket", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			CustomerID: ticket.CustomerID,
		},
	})
	return s.resolveTicket(ctx, ticket)
}

// List returns tickets visible to the actor, most recently updated
// first. Customers only see their own tickets.
func (s *TicketService) List(ctx context.Context, actor domain.Actor) ([]TicketView, error) {
	filter := repository.TicketFilter{CustomerID: policy.VisibilityFilter(actor)}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("Error fetching tickets", err)
	}

	refs, err := s.resolveRefs(ctx, collectTicketUserIDs(tickets))
	if err != nil {
		return nil, apperrors.NewInternalError("Error fetching tickets", err)
	}

	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		views = append(views, buildTicketView(&tickets[i], refs))
	}
	return views, nil
}

// Get returns one ticket with every reference resolved.
func (s *TicketService) Get(ctx context.Context, actor domain.Actor, ticketID string) (*TicketView, error) {
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(actor, ticket.CustomerID) {
		return nil, apperrors.NewAccessDenied()
	}
	return s.resolveTicket(ctx, ticket)
}

// UpdateStatus sets the ticket status. Customers are denied regardless
// of ownership; the value must be one of the declared statuses. A
// missing ticket reports NotFound before any value validation.
func (s *TicketService) UpdateStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus) (*TicketView, error) {
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status value")
	}
	if !policy.CanUpdateStatus(actor) {
		return nil, apperrors.NewAccessDenied()
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError("Error updating ticket", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return s.resolveTicket(ctx, ticket)
}

// AddNote appends a note authored by the actor, refreshing the
// ticket's updated_at. Customers may only annotate their own tickets.
func (s *TicketService) AddNote(ctx context.Context, actor domain.Actor, ticketID, content string, attachments []AttachmentInput) (*TicketView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required")
	}
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAnnotate(actor, ticket.CustomerID) {
		return nil, apperrors.NewAccessDenied()
	}

	note := &domain.Note{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	for _, att := range attachments {
		note.Attachments = append(note.Attachments, domain.Attachment{
			FileName:    att.FileName,
			StoragePath: att.StoragePath,
			SizeBytes:   att.SizeBytes,
			MimeType:    att.MimeType,
		})
	}
	if err := s.tickets.AppendNote(ctx, note); err != nil {
		return nil, apperrors.NewInternalError("Error adding note", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketNoteAddedPayload{
			NoteID:   note.ID,
			AuthorID: note.AuthorID,
		},
	})
	return s.Get(ctx, actor, ticket.ID)
}

// AddComment appends a comment authored by the actor, refreshing the
// ticket's updated_at. Same gating as AddNote.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, text string) (*TicketView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text required")
	}
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAnnotate(actor, ticket.CustomerID) {
		return nil, apperrors.NewAccessDenied()
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Text:     text,
	}
	if err := s.tickets.AppendComment(ctx, comment); err != nil {
		return nil, apperrors.NewInternalError("Error adding comment", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketCommentAddedPayload{
			CommentID: comment.ID,
			AuthorID:  comment.AuthorID,
		},
	})
	return s.Get(ctx, actor, ticket.ID)
}

// Assign sets the ticket's assignee. The target must resolve to an
// existing account whose role is exactly agent.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, ticketID, agentID string) (*AssignmentSummary, error) {
	if !policy.CanAssign(actor) {
		return nil, apperrors.NewAccessDenied()
	}
	ticket, err := s.fetchTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidAgent()
		}
		return nil, apperrors.NewInternalError("Error assigning ticket", err)
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewInvalidAgent()
	}

	ticket.AssigneeID = &agent.ID
	if err := s.tickets.UpdateAssignee(ctx, ticket); err != nil {
		return nil, apperrors.NewInternalError("Error assigning ticket", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketAssignedPayload{AgentID: agent.ID},
	})
	return &AssignmentSummary{
		TicketID: ticket.ID,
		Title:    ticket.Title,
		Assignee: UserRef{ID: agent.ID, Name: agent.Name, Email: agent.Email},
	}, nil
}

func (s *TicketService) fetchTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("Ticket")
		}
		return nil, apperrors.NewInternalError("Error fetching ticket", err)
	}
	return ticket, nil
}

func (s *TicketService) resolveTicket(ctx context.Context, ticket *domain.Ticket) (*TicketView, error) {
	refs, err := s.resolveRefs(ctx, collectTicketUserIDs([]domain.Ticket{*ticket}))
	if err != nil {
		return nil, apperrors.NewInternalError("Error fetching ticket", err)
	}
	view := buildTicketView(ticket, refs)
	return &view, nil
}

// resolveRefs loads display projections for the given account ids.
// Unknown ids resolve to a bare reference carrying just the id; the
// store does not enforce referential integrity.
func (s *TicketService) resolveRefs(ctx context.Context, ids []string) (map[string]UserRef, error) {
	refs := make(map[string]UserRef, len(ids))
	if len(ids) == 0 {
		return refs, nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		refs[user.ID] = UserRef{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	return refs, nil
}

func collectTicketUserIDs(tickets []domain.Ticket) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for i := range tickets {
		add(tickets[i].CustomerID)
		if tickets[i].AssigneeID != nil {
			add(*tickets[i].AssigneeID)
		}
		for _, note := range tickets[i].Notes {
			add(note.AuthorID)
		}
		for _, comment := range tickets[i].Comments {
			add(comment.AuthorID)
		}
	}
	return ids
}

func buildTicketView(ticket *domain.Ticket, refs map[string]UserRef) TicketView {
	view := TicketView{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Customer:    refOrBare(refs, ticket.CustomerID),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
	if ticket.AssigneeID != nil {
		assignee := refOrBare(refs, *ticket.AssigneeID)
		view.Assignee = &assignee
	}

	view.Notes = make([]NoteView, 0, len(ticket.Notes))
	for _, note := range ticket.Notes {
		view.Notes = append(view.Notes, NoteView{
			ID:          note.ID,
			Content:     note.Content,
			Author:      refOrBare(refs, note.AuthorID),
			Attachments: note.Attachments,
			CreatedAt:   note.CreatedAt,
		})
	}
	view.Comments = make([]CommentView, 0, len(ticket.Comments))
	for _, comment := range ticket.Comments {
		view.Comments = append(view.Comments, CommentView{
			ID:        comment.ID,
			Text:      comment.Text,
			Author:    refOrBare(refs, comment.AuthorID),
			CreatedAt: comment.CreatedAt,
		})
	}
	return view
}

func refOrBare(refs map[string]UserRef, id string) UserRef {
	if ref, ok := refs[id]; ok {
		return ref
	}
	return UserRef{ID: id}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
