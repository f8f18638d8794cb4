package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket/created"
	EventCommentAnalyze EventType = "comment/analyze"
	EventUserSignup     EventType = "user/signup"
)

// Event represents a business event delivered to workflow handlers. ID is
// assigned once at publish time and is stable across redeliveries of the
// same event, so workflow invocation ids derived from it are stable too.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload is emitted after a ticket document is inserted.
type TicketCreatedPayload struct {
	TicketID    string `json:"ticket_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// CommentAnalyzePayload is emitted after the ticket's current assignee
// appends a comment.
type CommentAnalyzePayload struct {
	TicketID    string `json:"ticket_id"`
	CommentText string `json:"comment_text"`
	UserID      string `json:"user_id"`
}

// UserSignupPayload is emitted after a new user registers.
type UserSignupPayload struct {
	Email string `json:"email"`
}
