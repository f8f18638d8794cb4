package dto

import (
	"time"

	"github.com/spec-kit/triage-service/internal/domain"
)

// RegisterUserRequest payload.
type RegisterUserRequest struct {
	Email  string   `json:"email"`
	Skills []string `json:"skills"`
}

// UpdateUserRequest payload for admin role/skill changes.
type UpdateUserRequest struct {
	Role   *domain.UserRole `json:"role"`
	Skills []string         `json:"skills"`
}

// UserResponse response.
type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Role      domain.UserRole `json:"role"`
	Skills    []string        `json:"skills"`
	CreatedAt time.Time       `json:"created_at"`
}

// UserResponseFrom maps the domain model.
func UserResponseFrom(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Skills:    user.Skills,
		CreatedAt: user.CreatedAt,
	}
}
