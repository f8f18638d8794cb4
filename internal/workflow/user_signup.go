package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/repository"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// UserSignupName identifies the signup-notification workflow.
const UserSignupName = "on-user-signup"

// UserSignupWorkflow sends a welcome email to a newly registered user.
type UserSignupWorkflow struct {
	users  repository.UserRepository
	mailer mail.Mailer
	logger *zap.Logger
}

// NewUserSignupWorkflow constructs the workflow.
func NewUserSignupWorkflow(users repository.UserRepository, mailer mail.Mailer, logger *zap.Logger) *UserSignupWorkflow {
	return &UserSignupWorkflow{users: users, mailer: mailer, logger: logger}
}

// Run executes one invocation of the signup workflow.
func (w *UserSignupWorkflow) Run(ctx context.Context, inv *Invocation) error {
	payload, ok := inv.Event.Payload.(events.UserSignupPayload)
	if !ok {
		return apperrors.NewValidationError("unexpected payload for user/signup", nil)
	}

	user, err := Run(ctx, inv, "get-user-email", func(ctx context.Context) (*domain.User, error) {
		u, err := w.users.GetByEmail(ctx, payload.Email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"email": payload.Email})
			}
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		return err
	}

	_, err = Run(ctx, inv, "send-welcome-email", func(ctx context.Context) (mail.SendResult, error) {
		subject := "Welcome to TicketAI"
		body := fmt.Sprintf(`Hi %s,

Thanks for signing up for TicketAI! We're glad to have you onboard.

You're now ready to create and manage support tickets with AI-powered intelligence.

Best regards,
The TicketAI Team`, user.Email)
		result, err := w.mailer.Send(ctx, user.Email, subject, body)
		if err != nil {
			return mail.SendResult{}, err
		}
		w.logger.Info("welcome email sent", zap.String("email", user.Email))
		return result, nil
	})
	return err
}
