package domain

import "time"

// Comment is one entry in a ticket's thread. AuthorID is nil for
// system-authored comments recorded by the comment-analysis workflow.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  *string
	Text      string
	CreatedAt time.Time
}
