package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/repository"
)

// recordingBus captures published events instead of dispatching them.
type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, eventType events.EventType, payload interface{}) events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	event := events.Event{
		ID:        fmt.Sprintf("evt-%d", len(b.published)+1),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	b.published = append(b.published, event)
	return event
}

func (b *recordingBus) Subscribe(events.EventType, events.EventHandler) {}

func (b *recordingBus) Drain() {}

func (b *recordingBus) byType(eventType events.EventType) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []events.Event
	for _, event := range b.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newMemTicketRepo(tickets ...*domain.Ticket) *memTicketRepo {
	repo := &memTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) UpdateFields(_ context.Context, id string, patch repository.TicketPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == "" {
			ticket.AssignedTo = nil
		} else {
			assignee := *patch.AssignedTo
			ticket.AssignedTo = &assignee
		}
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	return nil
}

func (r *memTicketRepo) TransitionStatus(_ context.Context, id string, status domain.TicketStatus, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	return nil
}

func (r *memTicketRepo) ListAll(context.Context, int, int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		result = append(result, *t)
	}
	return result, nil
}

func (r *memTicketRepo) ListForUser(_ context.Context, userID string, _, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.CreatedBy == userID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *memTicketRepo) ListForModerator(_ context.Context, userID string, skills []string, _, _ int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.CreatedBy == userID || (t.AssignedTo != nil && *t.AssignedTo == userID) {
			result = append(result, *t)
			continue
		}
		for _, skill := range skills {
			if containsSkill(t.RelatedSkills, skill) {
				result = append(result, *t)
				break
			}
		}
	}
	return result, nil
}

func containsSkill(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type memCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments []domain.Comment
}

func (r *memCommentRepo) Append(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("c-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *memCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			result = append(result, c)
		}
	}
	return result, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users []domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("u-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users = append(r.users, *user)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			copied := r.users[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].Email == email {
			copied := r.users[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(filter.Roles) == 0 {
		return append([]domain.User{}, r.users...), nil
	}
	var result []domain.User
	for _, user := range r.users {
		for _, role := range filter.Roles {
			if user.Role == role {
				result = append(result, user)
				break
			}
		}
	}
	return result, nil
}

func (r *memUserRepo) UpdateSkills(_ context.Context, id string, role domain.UserRole, skills []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Role = role
			r.users[i].Skills = skills
			return nil
		}
	}
	return pgx.ErrNoRows
}
