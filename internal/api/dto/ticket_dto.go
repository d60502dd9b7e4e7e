package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content     string              `json:"content"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

// AttachmentRequest describes attachment metadata supplied with a note.
type AttachmentRequest struct {
	FileName    string `json:"filename"`
	StoragePath string `json:"path"`
	SizeBytes   int64  `json:"size"`
	MimeType    string `json:"mimetype"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// AssignRequest payload.
type AssignRequest struct {
	AgentID string `json:"agentId"`
}

// UserRefResponse is the display projection of a referenced account.
type UserRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"filename"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size"`
	MimeType  string `json:"mimetype"`
}

// NoteResponse is one entry of a ticket's note log.
type NoteResponse struct {
	ID          string               `json:"id"`
	Content     string               `json:"content"`
	Author      UserRefResponse      `json:"author"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// CommentResponse is one entry of a ticket's comment log.
type CommentResponse struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Author    UserRefResponse `json:"author"`
	Timestamp time.Time       `json:"timestamp"`
}

// TicketResponse is the serialized ticket. List responses omit the
// note and comment logs.
type TicketResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TicketStatus `json:"status"`
	Customer    UserRefResponse     `json:"customer"`
	AssignedTo  *UserRefResponse    `json:"assignedTo,omitempty"`
	Notes       []NoteResponse      `json:"notes"`
	Comments    []CommentResponse   `json:"comments"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// AssignResponse confirms an assignment with a slim ticket summary.
type AssignResponse struct {
	Message string              `json:"message"`
	Ticket  TicketAssignSummary `json:"ticket"`
}

// TicketAssignSummary is the ticket projection inside AssignResponse.
type TicketAssignSummary struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	AssignedTo UserRefResponse `json:"assignedTo"`
}

// NewTicketResponse converts a resolved ticket view. The notes,
// comments and attachments arrays always serialize, as empty arrays
// when the ticket carries none.
func NewTicketResponse(view *service.TicketView) TicketResponse {
	resp := TicketResponse{
		ID:          view.ID,
		Title:       view.Title,
		Description: view.Description,
		Status:      view.Status,
		Customer:    userRef(view.Customer),
		Notes:       make([]NoteResponse, 0, len(view.Notes)),
		Comments:    make([]CommentResponse, 0, len(view.Comments)),
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
	if view.Assignee != nil {
		assignee := userRef(*view.Assignee)
		resp.AssignedTo = &assignee
	}
	for _, note := range view.Notes {
		noteResp := NoteResponse{
			ID:          note.ID,
			Content:     note.Content,
			Author:      userRef(note.Author),
			Attachments: make([]AttachmentResponse, 0, len(note.Attachments)),
			CreatedAt:   note.CreatedAt,
		}
		for _, att := range note.Attachments {
			noteResp.Attachments = append(noteResp.Attachments, AttachmentResponse{
				ID:        att.ID,
				FileName:  att.FileName,
				Path:      att.StoragePath,
				SizeBytes: att.SizeBytes,
				MimeType:  att.MimeType,
			})
		}
		resp.Notes = append(resp.Notes, noteResp)
	}
	for _, comment := range view.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:        comment.ID,
			Text:      comment.Text,
			Author:    userRef(comment.Author),
			Timestamp: comment.CreatedAt,
		})
	}
	return resp
}

// NewAssignResponse converts an assignment summary.
func NewAssignResponse(summary *service.AssignmentSummary) AssignResponse {
	return AssignResponse{
		Message: "Ticket assigned successfully",
		Ticket: TicketAssignSummary{
			ID:         summary.TicketID,
			Title:      summary.Title,
			AssignedTo: userRef(summary.Assignee),
		},
	}
}

func userRef(ref service.UserRef) UserRefResponse {
	return UserRefResponse{ID: ref.ID, Name: ref.Name, Email: ref.Email}
}
