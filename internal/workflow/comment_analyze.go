package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/ai"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// CommentAnalyzeName identifies the comment-analysis workflow.
const CommentAnalyzeName = "analyze-comment"

// CommentAnalyzeWorkflow re-evaluates ticket status from an assignee's
// free-text progress update.
type CommentAnalyzeWorkflow struct {
	tickets    repository.TicketRepository
	classifier ai.Classifier
	logger     *zap.Logger
}

// NewCommentAnalyzeWorkflow constructs the workflow.
func NewCommentAnalyzeWorkflow(tickets repository.TicketRepository, classifier ai.Classifier, logger *zap.Logger) *CommentAnalyzeWorkflow {
	return &CommentAnalyzeWorkflow{tickets: tickets, classifier: classifier, logger: logger}
}

// StatusForOutcome maps a classified comment outcome to the ticket status
// the workflow persists.
func StatusForOutcome(outcome ai.CommentOutcome) domain.TicketStatus {
	switch outcome {
	case ai.OutcomeComplete:
		return domain.TicketStatusDone
	case ai.OutcomeNeedsInfo, ai.OutcomeReturned:
		return domain.TicketStatusTodo
	default:
		return domain.TicketStatusInProgress
	}
}

// Run executes one invocation of the comment-analysis workflow.
func (w *CommentAnalyzeWorkflow) Run(ctx context.Context, inv *Invocation) error {
	payload, ok := inv.Event.Payload.(events.CommentAnalyzePayload)
	if !ok {
		return apperrors.NewValidationError("unexpected payload for comment/analyze", nil)
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

	outcome := External(ctx, inv, "classify-comment", func(ctx context.Context) ai.CommentOutcome {
		return w.classifier.ClassifyComment(ctx, ticket.Title, ticket.Description, ticket.Status, payload.CommentText)
	})

	_, err = Run(ctx, inv, "update-ticket-status", func(ctx context.Context) (domain.TicketStatus, error) {
		newStatus := StatusForOutcome(outcome)
		note := fmt.Sprintf(
			"[SYSTEM NOTIFICATION]: AI Analyzer has reviewed the latest progress. Ticket status has been updated to: %s. Status Reason: %s",
			newStatus, outcome)
		if err := w.tickets.TransitionStatus(ctx, ticket.ID, newStatus, note); err != nil {
			return "", err
		}
		w.logger.Info("comment analyzed",
			zap.String("ticket_id", ticket.ID),
			zap.String("outcome", string(outcome)),
			zap.String("new_status", string(newStatus)))
		return newStatus, nil
	})
	return err
}
