package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/ai"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// TicketCreateName identifies the creation workflow in logs and metrics.
const TicketCreateName = "on-ticket-create"

// TicketCreateWorkflow drives a new ticket through triage: fetch,
// status-init, classify, persist-classification, assign, notify.
type TicketCreateWorkflow struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	classifier ai.Classifier
	mailer     mail.Mailer
	logger     *zap.Logger

	// randInt breaks ties among equally qualified assignees; injectable
	// so tests can pin the choice.
	randInt func(n int) int
}

// NewTicketCreateWorkflow constructs the workflow.
func NewTicketCreateWorkflow(
	tickets repository.TicketRepository,
	users repository.UserRepository,
	classifier ai.Classifier,
	mailer mail.Mailer,
	logger *zap.Logger,
) *TicketCreateWorkflow {
	return &TicketCreateWorkflow{
		tickets:    tickets,
		users:      users,
		classifier: classifier,
		mailer:     mailer,
		logger:     logger,
		randInt:    rand.Intn,
	}
}

// WithRandInt overrides the tie-break source. Test hook.
func (w *TicketCreateWorkflow) WithRandInt(fn func(n int) int) *TicketCreateWorkflow {
	w.randInt = fn
	return w
}

// Run executes one invocation of the creation workflow.
func (w *TicketCreateWorkflow) Run(ctx context.Context, inv *Invocation) error {
	payload, ok := inv.Event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return apperrors.NewValidationError("unexpected payload for ticket/created", nil)
	}

	ticket, err := Run(ctx, inv, "fetch-ticket", func(ctx context.Context) (*domain.Ticket, error) {
		t, err := w.tickets.GetByID(ctx, payload.TicketID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": payload.TicketID})
			}
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return err
	}

	_, err = Run(ctx, inv, "init-status", func(ctx context.Context) (domain.TicketStatus, error) {
		status := domain.TicketStatusTodo
		if err := w.tickets.UpdateFields(ctx, ticket.ID, repository.TicketPatch{Status: &status}); err != nil {
			return "", err
		}
		return status, nil
	})
	if err != nil {
		return err
	}

	// The classifier manages its own durable execution; wrapping it in a
	// checkpointed step would cache a non-deterministic result across
	// attempts with a second source of truth for completion.
	classification := External(ctx, inv, "classify-ticket", func(ctx context.Context) ai.TicketClassification {
		return w.classifier.ClassifyTicket(ctx, ticket.Title, ticket.Description)
	})

	skills, err := Run(ctx, inv, "persist-classification", func(ctx context.Context) ([]string, error) {
		priority := classification.Priority
		if !domain.ValidPriority(priority) {
			priority = domain.TicketPriorityMedium
		}
		status := domain.TicketStatusInProgress
		patch := repository.TicketPatch{
			Status:        &status,
			Priority:      &priority,
			HelpfulNotes:  &classification.HelpfulNotes,
			RelatedSkills: classification.RelatedSkills,
		}
		if patch.RelatedSkills == nil {
			patch.RelatedSkills = []string{}
		}
		if err := w.tickets.UpdateFields(ctx, ticket.ID, patch); err != nil {
			return nil, err
		}
		return patch.RelatedSkills, nil
	})
	if err != nil {
		return err
	}

	assignee, err := Run(ctx, inv, "assign-moderator", func(ctx context.Context) (*domain.User, error) {
		user, err := w.selectAssignee(ctx, skills)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := w.tickets.UpdateFields(ctx, ticket.ID, repository.TicketPatch{AssignedTo: &user.ID}); err != nil {
				return nil, err
			}
		}
		return user, nil
	})
	if err != nil {
		return err
	}

	if assignee == nil {
		w.logger.Info("no eligible assignee, ticket left unassigned",
			zap.String("ticket_id", ticket.ID))
		return nil
	}

	_, err = Run(ctx, inv, "send-notification", func(ctx context.Context) (mail.SendResult, error) {
		subject := fmt.Sprintf("Ticket Assigned: %s", ticket.Title)
		body := fmt.Sprintf("Hi, you have been assigned a new ticket.\n\nPriority: %s\nSummary: %s\n\nPlease check your dashboard for details.",
			classification.Priority, classification.Summary)
		return w.mailer.Send(ctx, assignee.Email, subject, body)
	})
	return err
}

// selectAssignee picks a moderator or admin whose skills intersect the
// classified skills (case-insensitive substring, both directions), chosen
// uniformly at random among matches. Falls back to a random moderator, then
// the first admin, then nobody.
func (w *TicketCreateWorkflow) selectAssignee(ctx context.Context, skills []string) (*domain.User, error) {
	candidates, err := w.users.List(ctx, repository.UserFilter{
		Roles: []domain.UserRole{domain.UserRoleModerator, domain.UserRoleAdmin},
	})
	if err != nil {
		return nil, err
	}

	var matches []domain.User
	for _, user := range candidates {
		if skillsIntersect(user.Skills, skills) {
			matches = append(matches, user)
		}
	}
	if len(matches) > 0 {
		return &matches[w.randInt(len(matches))], nil
	}

	moderators, err := w.users.List(ctx, repository.UserFilter{
		Roles: []domain.UserRole{domain.UserRoleModerator},
	})
	if err != nil {
		return nil, err
	}
	if len(moderators) > 0 {
		return &moderators[w.randInt(len(moderators))], nil
	}

	admins, err := w.users.List(ctx, repository.UserFilter{
		Roles: []domain.UserRole{domain.UserRoleAdmin},
	})
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return &admins[0], nil
	}
	return nil, nil
}

// skillsIntersect matches case-insensitively and by substring in either
// direction, so a user skill "SQL" matches a ticket skill "PostgreSQL".
func skillsIntersect(userSkills, ticketSkills []string) bool {
	for _, us := range userSkills {
		u := strings.ToLower(strings.TrimSpace(us))
		if u == "" {
			continue
		}
		for _, ts := range ticketSkills {
			t := strings.ToLower(strings.TrimSpace(ts))
			if t == "" {
				continue
			}
			if strings.Contains(u, t) || strings.Contains(t, u) {
				return true
			}
		}
	}
	return false
}
