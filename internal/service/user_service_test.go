package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

func TestRegister_CreatesUserAndPublishesSignup(t *testing.T) {
	ctx := context.Background()
	users := &memUserRepo{}
	bus := &recordingBus{}
	svc := NewUserService(users, bus)

	user, err := svc.Register(ctx, RegisterInput{
		Email:  "  New@Example.com ",
		Skills: []string{"database", " database ", "Go", ""},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, domain.UserRoleUser, user.Role)
	assert.Equal(t, []string{"database", "Go"}, user.Skills)

	published := bus.byType(events.EventUserSignup)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.UserSignupPayload)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", payload.Email)
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewUserService(&memUserRepo{}, &recordingBus{})

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.Register(ctx, RegisterInput{Email: email})
		require.Error(t, err, "email %q", email)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	}
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := &memUserRepo{users: []domain.User{{ID: "u-1", Email: "taken@example.com"}}}
	bus := &recordingBus{}
	svc := NewUserService(users, bus)

	_, err := svc.Register(ctx, RegisterInput{Email: "Taken@example.com"})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	assert.Empty(t, bus.byType(events.EventUserSignup))
}

func TestListUsers_AdminOnly(t *testing.T) {
	ctx := context.Background()
	users := &memUserRepo{users: []domain.User{
		{ID: "u-1", Email: "a@example.com", Role: domain.UserRoleUser},
		{ID: "u-2", Email: "b@example.com", Role: domain.UserRoleModerator},
	}}
	svc := NewUserService(users, &recordingBus{})

	listed, err := svc.ListUsers(ctx, &domain.User{ID: "u-admin", Role: domain.UserRoleAdmin})
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	_, err = svc.ListUsers(ctx, &domain.User{ID: "u-1", Role: domain.UserRoleUser})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	admin := &domain.User{ID: "u-admin", Role: domain.UserRoleAdmin}

	t.Run("admin promotes and resets skills", func(t *testing.T) {
		users := &memUserRepo{users: []domain.User{{ID: "u-1", Email: "a@example.com", Role: domain.UserRoleUser}}}
		svc := NewUserService(users, &recordingBus{})

		role := domain.UserRoleModerator
		updated, err := svc.UpdateUser(ctx, admin, "u-1", UpdateUserInput{
			Role:   &role,
			Skills: []string{"database", "networking"},
		})
		require.NoError(t, err)
		assert.Equal(t, domain.UserRoleModerator, updated.Role)
		assert.Equal(t, []string{"database", "networking"}, updated.Skills)

		stored, err := users.GetByID(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, domain.UserRoleModerator, stored.Role)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		users := &memUserRepo{users: []domain.User{{ID: "u-1", Email: "a@example.com", Role: domain.UserRoleUser}}}
		svc := NewUserService(users, &recordingBus{})

		role := domain.UserRole("superuser")
		_, err := svc.UpdateUser(ctx, admin, "u-1", UpdateUserInput{Role: &role})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("missing user", func(t *testing.T) {
		svc := NewUserService(&memUserRepo{}, &recordingBus{})
		_, err := svc.UpdateUser(ctx, admin, "u-ghost", UpdateUserInput{})
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		svc := NewUserService(&memUserRepo{}, &recordingBus{})
		caller := &domain.User{ID: "u-1", Role: domain.UserRoleModerator}
		_, err := svc.UpdateUser(ctx, caller, "u-2", UpdateUserInput{})
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})
}

func TestNormalizeSkills(t *testing.T) {
	assert.Equal(t, []string{"Go", "SQL"}, normalizeSkills([]string{" Go ", "go", "SQL", ""}))
	assert.Empty(t, normalizeSkills(nil))
}
