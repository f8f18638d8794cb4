package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// ReassignTicketRequest payload; a null assignee clears the assignment.
type ReassignTicketRequest struct {
	AssignedTo *string `json:"assigned_to"`
}

// TicketSummary response.
type TicketSummary struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	RelatedSkills []string              `json:"related_skills"`
	AssignedTo    *string               `json:"assigned_to"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including the thread.
type TicketDetailResponse struct {
	TicketSummary
	Description  string            `json:"description"`
	HelpfulNotes *string           `json:"helpful_notes"`
	Comments     []CommentResponse `json:"comments"`
}

// CommentResponse represents one thread entry. A null author marks a
// system-authored comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  *string   `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketSummaryFrom maps the domain model.
func TicketSummaryFrom(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		RelatedSkills: ticket.RelatedSkills,
		AssignedTo:    ticket.AssignedTo,
		CreatedBy:     ticket.CreatedBy,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

// TicketDetailFrom maps the domain model with its thread.
func TicketDetailFrom(ticket *domain.Ticket, comments []domain.Comment) TicketDetailResponse {
	thread := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		thread = append(thread, CommentResponse{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}
	return TicketDetailResponse{
		TicketSummary: TicketSummaryFrom(ticket),
		Description:   ticket.Description,
		HelpfulNotes:  ticket.HelpfulNotes,
		Comments:      thread,
	}
}
