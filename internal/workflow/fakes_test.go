package workflow

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/triage-service/internal/ai"
	"github.com/spec-kit/triage-service/internal/domain"
	"github.com/spec-kit/triage-service/internal/mail"
	"github.com/spec-kit/triage-service/internal/repository"
)

type fakeTicketRepo struct {
	mu          sync.Mutex
	tickets     map[string]*domain.Ticket
	getCalls    int
	patchCalls  int
	failPatchOn int // 1-indexed UpdateFields call that fails, 0 disables
	transitions []string
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = ticket
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) UpdateFields(_ context.Context, id string, patch repository.TicketPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patchCalls++
	if r.failPatchOn > 0 && r.patchCalls == r.failPatchOn {
		return errStorage
	}
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.HelpfulNotes != nil {
		ticket.HelpfulNotes = patch.HelpfulNotes
	}
	if patch.RelatedSkills != nil {
		ticket.RelatedSkills = patch.RelatedSkills
	}
	if patch.AssignedTo != nil {
		if *patch.AssignedTo == "" {
			ticket.AssignedTo = nil
		} else {
			assignee := *patch.AssignedTo
			ticket.AssignedTo = &assignee
		}
	}
	return nil
}

func (r *fakeTicketRepo) TransitionStatus(_ context.Context, id string, status domain.TicketStatus, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	r.transitions = append(r.transitions, note)
	return nil
}

func (r *fakeTicketRepo) ListAll(context.Context, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) ListForUser(context.Context, string, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) ListForModerator(context.Context, string, []string, int, int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) get(id string) *domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id]
}

type fakeUserRepo struct {
	users []domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users = append(r.users, *user)
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			return &r.users[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for i := range r.users {
		if r.users[i].Email == email {
			return &r.users[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
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

func (r *fakeUserRepo) UpdateSkills(context.Context, string, domain.UserRole, []string) error {
	return nil
}

type stubClassifier struct {
	mu            sync.Mutex
	ticketResult  ai.TicketClassification
	commentResult ai.CommentOutcome
	ticketCalls   int
	commentCalls  int
}

func (c *stubClassifier) ClassifyTicket(context.Context, string, string) ai.TicketClassification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticketCalls++
	return c.ticketResult
}

func (c *stubClassifier) ClassifyComment(context.Context, string, string, domain.TicketStatus, string) ai.CommentOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commentCalls++
	return c.commentResult
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	fails int
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) (mail.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return mail.SendResult{}, errStorage
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return mail.SendResult{Accepted: true, MessageID: "msg-1"}, nil
}
