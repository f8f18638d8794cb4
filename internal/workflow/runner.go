package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/checkpoint"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/observability"
	apperrors "github.com/spec-kit/triage-service/pkg/util"
)

// Func is the body of a workflow: a sequence of workflow.Run steps plus at
// most one workflow.External call.
type Func func(ctx context.Context, inv *Invocation) error

// Result reports the outcome of a single invocation attempt. The caller
// decides from it whether to redeliver the triggering event.
type Result struct {
	OK        bool
	Retriable bool
	Attempt   int
	Err       error
}

// Runner executes workflow invocations against a shared checkpoint store
// and drives the explicit redelivery loop.
type Runner struct {
	store   checkpoint.Store
	logger  *zap.Logger
	metrics *observability.Metrics
	backoff time.Duration
}

// NewRunner constructs a runner. backoff is the pause between redeliveries
// of a failed invocation; zero disables it.
func NewRunner(store checkpoint.Store, logger *zap.Logger, metrics *observability.Metrics, backoff time.Duration) *Runner {
	return &Runner{store: store, logger: logger, metrics: metrics, backoff: backoff}
}

// Execute runs one attempt of a workflow for an event. The invocation id is
// derived from the workflow name and the event id, so redeliveries of the
// same event resume from the same checkpoint domain while distinct
// workflows handling the same event stay isolated.
func (r *Runner) Execute(ctx context.Context, name string, event events.Event, attempt int, fn Func) Result {
	inv := &Invocation{
		ID:      name + ":" + event.ID,
		Event:   event,
		Attempt: attempt,
		store:   r.store,
		logger:  r.logger.With(zap.String("workflow", name)),
	}

	err := fn(ctx, inv)
	if err == nil {
		return Result{OK: true, Attempt: attempt}
	}
	return Result{
		OK:        false,
		Retriable: apperrors.IsRetriable(err),
		Attempt:   attempt,
		Err:       err,
	}
}

// Handler wraps a workflow as an event-bus handler with an explicit
// redelivery loop bounded by the workflow's attempt budget. Completed steps
// checkpoint under the invocation id, so each redelivery re-runs only the
// failing step and its successors.
func (r *Runner) Handler(name string, attempts int, fn Func) events.EventHandler {
	if attempts < 1 {
		attempts = 1
	}
	return func(ctx context.Context, event events.Event) error {
		var result Result
		for attempt := 1; attempt <= attempts; attempt++ {
			result = r.Execute(ctx, name, event, attempt, fn)
			if result.OK {
				r.metrics.RecordInvocation(name, "success")
				r.logger.Info("workflow completed",
					zap.String("workflow", name),
					zap.String("event_id", event.ID),
					zap.Int("attempt", attempt))
				return nil
			}
			if !result.Retriable {
				r.metrics.RecordInvocation(name, "non_retriable")
				r.logger.Warn("workflow failed, not retriable",
					zap.String("workflow", name),
					zap.String("event_id", event.ID),
					zap.Int("attempt", attempt),
					zap.Error(result.Err))
				return result.Err
			}
			if attempt < attempts {
				r.metrics.RecordInvocation(name, "retry")
				r.logger.Warn("workflow attempt failed, redelivering",
					zap.String("workflow", name),
					zap.String("event_id", event.ID),
					zap.Int("attempt", attempt),
					zap.Error(result.Err))
				if r.backoff > 0 {
					select {
					case <-time.After(time.Duration(attempt) * r.backoff):
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		}
		// Budget spent: the invocation is abandoned and the ticket stays
		// in its last-checkpointed state. Operators learn via logs.
		r.metrics.RecordInvocation(name, "abandoned")
		r.logger.Error("workflow abandoned after exhausting retries",
			zap.String("workflow", name),
			zap.String("event_id", event.ID),
			zap.Int("attempts", attempts),
			zap.Error(result.Err))
		return result.Err
	}
}
