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

// UserService handles registration and administration of users.
type UserService struct {
	users repository.UserRepository
	bus   events.Bus
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bus events.Bus) *UserService {
	return &UserService{users: users, bus: bus}
}

// RegisterInput describes signup payload. Credentials live with the
// external identity service, not here.
type RegisterInput struct {
	Email  string
	Skills []string
}

// Register creates a user record and triggers the signup-notification
// workflow.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("valid email required", nil)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:  email,
		Role:   domain.UserRoleUser,
		Skills: normalizeSkills(input.Skills),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.bus.Publish(ctx, events.EventUserSignup, events.UserSignupPayload{Email: user.Email})
	return user, nil
}

// ListUsers returns all users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, caller *domain.User) ([]domain.User, error) {
	if caller.Role != domain.UserRoleAdmin {
		return nil, apperrors.NewForbidden("admin access required")
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateUserInput carries admin-editable fields.
type UpdateUserInput struct {
	Role   *domain.UserRole
	Skills []string
}

// UpdateUser lets an admin change a user's role and skill set.
func (s *UserService) UpdateUser(ctx context.Context, caller *domain.User, userID string, input UpdateUserInput) (*domain.User, error) {
	if caller.Role != domain.UserRoleAdmin {
		return nil, apperrors.NewForbidden("admin access required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	role := user.Role
	if input.Role != nil {
		switch *input.Role {
		case domain.UserRoleUser, domain.UserRoleModerator, domain.UserRoleAdmin:
			role = *input.Role
		default:
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *input.Role})
		}
	}
	skills := user.Skills
	if input.Skills != nil {
		skills = normalizeSkills(input.Skills)
	}

	if err := s.users.UpdateSkills(ctx, userID, role, skills); err != nil {
		return nil, apperrors.MapError(err)
	}
	user.Role = role
	user.Skills = skills
	return user, nil
}

func normalizeSkills(skills []string) []string {
	result := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
