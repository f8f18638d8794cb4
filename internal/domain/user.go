package domain

import "time"

// UserRole determines what a user can see and whether the triage workflow
// may assign tickets to them.
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// User is the domain model for everyone who interacts with tickets.
// Read-only from the workflows' perspective.
type User struct {
	ID        string
	Email     string
	Role      UserRole
	Skills    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
