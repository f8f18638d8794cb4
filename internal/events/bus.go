package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventHandler handles a published event. Delivery is at-least-once: a
// handler may observe the same event more than once and must be idempotent.
type EventHandler func(context.Context, Event) error

// Bus is the process-wide publish/subscribe mechanism. It is constructed
// once at startup and passed by reference, never held in a package global.
type Bus interface {
	Publish(ctx context.Context, eventType EventType, payload interface{}) Event
	Subscribe(eventType EventType, handler EventHandler)
	Drain()
}

// inMemoryBus dispatches each event to its handlers on dedicated goroutines.
// Handlers for distinct events run concurrently with no ordering guarantee.
type inMemoryBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// NewInMemoryBus creates a bus instance.
func NewInMemoryBus(logger *zap.Logger) Bus {
	return &inMemoryBus{
		handlers: make(map[EventType][]EventHandler),
		logger:   logger,
	}
}

// Publish assigns the event id and enqueues delivery to every handler
// registered for the event type. It never blocks on handler completion.
// Handlers outlive the publishing caller, so they run on a fresh context:
// a request-scoped publish context must not cancel workflow retries, and
// fasthttp recycles its request contexts once the handler returns.
func (b *inMemoryBus) Publish(_ context.Context, eventType EventType, payload interface{}) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.RLock()
	handlers := append([]EventHandler{}, b.handlers[event.Type]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Warn("no handler for event", zap.String("event_type", string(event.Type)))
		return event
	}

	for _, handler := range handlers {
		h := handler
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := h(context.Background(), event); err != nil {
				b.logger.Error("event handler failed",
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}()
	}
	return event
}

// Subscribe registers a handler for the given event type. The triage
// pipeline registers exactly one handler per type, but fan-out is permitted.
func (b *inMemoryBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Drain blocks until all in-flight deliveries complete.
func (b *inMemoryBus) Drain() {
	b.wg.Wait()
}
