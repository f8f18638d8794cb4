package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())

	var (
		mu       sync.Mutex
		received []Event
	)
	bus.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})

	published := bus.Publish(context.Background(), EventTicketCreated, TicketCreatedPayload{TicketID: "t-1"})
	bus.Drain()

	require.Len(t, received, 1)
	assert.Equal(t, published.ID, received[0].ID)
	assert.Equal(t, EventTicketCreated, received[0].Type)
	payload, ok := received[0].Payload.(TicketCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, "t-1", payload.TicketID)
}

func TestBus_PublishAssignsUniqueIDs(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	bus.Subscribe(EventUserSignup, func(context.Context, Event) error { return nil })

	first := bus.Publish(context.Background(), EventUserSignup, UserSignupPayload{Email: "a@example.com"})
	second := bus.Publish(context.Background(), EventUserSignup, UserSignupPayload{Email: "b@example.com"})
	bus.Drain()

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBus_HandlerContextDetachedFromPublisher(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())

	var (
		mu         sync.Mutex
		handlerErr error
	)
	bus.Subscribe(EventCommentAnalyze, func(ctx context.Context, _ Event) error {
		mu.Lock()
		defer mu.Unlock()
		handlerErr = ctx.Err()
		return nil
	})

	// The publisher's context is request-scoped and already done; the
	// handler must still run on a live context.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, EventCommentAnalyze, CommentAnalyzePayload{TicketID: "t-1"})
	bus.Drain()

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, handlerErr)
}

func TestBus_FanOutToMultipleHandlers(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())

	var (
		mu    sync.Mutex
		calls int
	)
	handler := func(context.Context, Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil
	}
	bus.Subscribe(EventTicketCreated, handler)
	bus.Subscribe(EventTicketCreated, handler)

	bus.Publish(context.Background(), EventTicketCreated, TicketCreatedPayload{TicketID: "t-1"})
	bus.Drain()

	assert.Equal(t, 2, calls)
}

func TestBus_NoHandlerIsNotFatal(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop())
	event := bus.Publish(context.Background(), EventTicketCreated, TicketCreatedPayload{TicketID: "t-1"})
	bus.Drain()
	assert.NotEmpty(t, event.ID)
}
