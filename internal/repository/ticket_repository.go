package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures listing parameters. A nil CustomerID lists
// every ticket.
type TicketFilter struct {
	CustomerID *string
}

// TicketRepository encapsulates ticket persistence. Appending a note or
// comment also refreshes the parent ticket's updated_at so that
// recency ordering reflects annotation activity.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, ticket *domain.Ticket) error
	UpdateAssignee(ctx context.Context, ticket *domain.Ticket) error
	AppendNote(ctx context.Context, note *domain.Note) error
	AppendComment(ctx context.Context, comment *domain.Comment) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, customer_user_id, assignee_user_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.CustomerID,
		ticket.AssigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, status, customer_user_id, assignee_user_id, created_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.CustomerID,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}

	notes, err := r.listNotes(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Notes = notes

	comments, err := r.listComments(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments

	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	const base = `
        SELECT id, title, description, status, customer_user_id, assignee_user_id, created_at, updated_at
        FROM tickets`

	var rows pgx.Rows
	var err error
	if filter.CustomerID != nil {
		rows, err = r.pool.Query(ctx, base+` WHERE customer_user_id=$1 ORDER BY updated_at DESC`, *filter.CustomerID)
	} else {
		rows, err = r.pool.Query(ctx, base+` ORDER BY updated_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Status,
			&ticket.CustomerID,
			&ticket.AssigneeID,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// listings serve the full document, logs included
	for i := range result {
		notes, err := r.listNotes(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Notes = notes

		comments, err := r.listComments(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Comments = comments
	}
	return result, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, ticket.Status, ticket.ID).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assignee_user_id=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, ticket.AssigneeID, ticket.ID).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) AppendNote(ctx context.Context, note *domain.Note) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_notes (ticket_id, author_user_id, content)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert, note.TicketID, note.AuthorID, note.Content).
		Scan(&note.ID, &note.CreatedAt); err != nil {
		return err
	}

	for i := range note.Attachments {
		att := &note.Attachments[i]
		att.NoteID = note.ID
		const attInsert = `
            INSERT INTO note_attachments (note_id, file_name, storage_path, size_bytes, mime_type)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, attInsert,
			att.NoteID, att.FileName, att.StoragePath, att.SizeBytes, att.MimeType,
		).Scan(&att.ID, &att.CreatedAt); err != nil {
			return err
		}
	}

	if err := touchTicket(ctx, tx, note.TicketID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_comments (ticket_id, author_user_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert, comment.TicketID, comment.AuthorID, comment.Text).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}

	if err := touchTicket(ctx, tx, comment.TicketID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func touchTicket(ctx context.Context, tx pgx.Tx, ticketID string) error {
	cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) listNotes(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, ticket_id, author_user_id, content, created_at
        FROM ticket_notes WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(&note.ID, &note.TicketID, &note.AuthorID, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range notes {
		attachments, err := r.listAttachments(ctx, notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].Attachments = attachments
	}
	return notes, nil
}

func (r *ticketRepository) listAttachments(ctx context.Context, noteID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, note_id, file_name, storage_path, size_bytes, mime_type, created_at
        FROM note_attachments WHERE note_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var att domain.Attachment
		if err := rows.Scan(&att.ID, &att.NoteID, &att.FileName, &att.StoragePath, &att.SizeBytes, &att.MimeType, &att.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

func (r *ticketRepository) listComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_user_id, body, created_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.AuthorID, &comment.Text, &comment.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
