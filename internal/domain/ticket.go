package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Status is mutated
// exclusively by workflow steps, never by request handlers.
type TicketStatus string

const (
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusDone       TicketStatus = "DONE"
)

// TicketPriority enumerates triage urgency assigned by the classifier.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidPriority reports whether p is one of the three known priorities.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	RelatedSkills []string
	HelpfulNotes  *string
	AssignedTo    *string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
