package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// TicketService handles the synchronous request path: record creation and
// comment appends. It never touches ticket status; that belongs to the
// workflows it triggers.
type TicketService struct {
	tickets  repository.TicketRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	bus      events.Bus
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Bus         events.Bus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:  deps.TicketRepo,
		comments: deps.CommentRepo,
		users:    deps.UserRepo,
		bus:      deps.Bus,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
}

// CreateTicket inserts the ticket record synchronously, then kicks off the
// triage workflow. The record exists before the workflow begins, so a
// failed workflow never loses a ticket.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}

	ticket := &domain.Ticket{
		Title:         input.Title,
		Description:   input.Description,
		Status:        domain.TicketStatusTodo,
		Priority:      domain.TicketPriorityMedium,
		RelatedSkills: []string{},
		CreatedBy:     userID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.bus.Publish(ctx, events.EventTicketCreated, events.TicketCreatedPayload{
		TicketID:    ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		CreatedBy:   userID,
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket thread. When the author is the
// ticket's current assignee, the comment-analysis workflow is triggered;
// comments from anyone else never are.
func (s *TicketService) AddComment(ctx context.Context, userID, ticketID, text string) (*domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: &userID,
		Text:     text,
	}
	if err := s.comments.Append(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.AssignedTo != nil && *ticket.AssignedTo == userID {
		s.bus.Publish(ctx, events.EventCommentAnalyze, events.CommentAnalyzePayload{
			TicketID:    ticket.ID,
			CommentText: text,
			UserID:      userID,
		})
	}
	return comment, nil
}

// GetTicket returns a ticket with its thread, scoped to what the caller may
// see.
func (s *TicketService) GetTicket(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	if !s.canSee(caller, ticket) {
		return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListTickets returns tickets visible to the caller: admins see everything,
// moderators see assigned/created/skill-matched, users see their own.
func (s *TicketService) ListTickets(ctx context.Context, caller *domain.User, limit, offset int) ([]domain.Ticket, error) {
	var (
		tickets []domain.Ticket
		err     error
	)
	switch caller.Role {
	case domain.UserRoleAdmin:
		tickets, err = s.tickets.ListAll(ctx, limit, offset)
	case domain.UserRoleModerator:
		tickets, err = s.tickets.ListForModerator(ctx, caller.ID, caller.Skills, limit, offset)
	default:
		tickets, err = s.tickets.ListForUser(ctx, caller.ID, limit, offset)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ReassignTicket lets an admin set or clear the assignee manually.
func (s *TicketService) ReassignTicket(ctx context.Context, caller *domain.User, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if caller.Role != domain.UserRoleAdmin {
		return nil, apperrors.NewForbidden("admin access required")
	}
	if assigneeID != nil {
		if _, err := s.users.GetByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"user_id": *assigneeID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	var target string
	if assigneeID != nil {
		target = *assigneeID
	}
	if err := s.tickets.UpdateFields(ctx, ticketID, repository.TicketPatch{AssignedTo: &target}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) canSee(caller *domain.User, ticket *domain.Ticket) bool {
	if caller.Role == domain.UserRoleAdmin {
		return true
	}
	if ticket.CreatedBy == caller.ID {
		return true
	}
	if ticket.AssignedTo != nil && *ticket.AssignedTo == caller.ID {
		return true
	}
	if caller.Role == domain.UserRoleModerator {
		for _, us := range caller.Skills {
			u := strings.ToLower(strings.TrimSpace(us))
			if u == "" {
				continue
			}
			for _, ts := range ticket.RelatedSkills {
				if strings.Contains(strings.ToLower(ts), u) {
					return true
				}
			}
		}
	}
	return false
}
