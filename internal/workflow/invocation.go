// Package workflow implements the durable step executor that drives the
// triage pipeline. Each workflow run is an Invocation whose id is derived
// from the triggering event; completed steps are checkpointed under that id
// and skipped when the event is redelivered.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/checkpoint"
	"github.com/spec-kit/triage-service/internal/events"
)

// Invocation is one execution attempt of a workflow for one triggering
// event. The same event redelivered yields the same invocation id, so
// checkpoints recorded by earlier attempts are honored.
type Invocation struct {
	ID      string
	Event   events.Event
	Attempt int

	store  checkpoint.Store
	logger *zap.Logger
}

// StepError wraps a failure inside a named step so the runner can report
// which step broke the invocation.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Run executes one named, checkpointed step. If a checkpoint exists for
// (invocation id, name) the stored value is returned without invoking fn.
// Otherwise fn runs; on success its result is checkpointed before the next
// step may proceed, on failure the whole invocation fails. The checkpointed
// value must round-trip through JSON.
func Run[T any](ctx context.Context, inv *Invocation, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, found, err := inv.store.Get(ctx, inv.ID, name)
	if err != nil {
		return zero, &StepError{Step: name, Err: err}
	}
	if found {
		var stored T
		if err := json.Unmarshal(raw, &stored); err == nil {
			inv.logger.Debug("step skipped, checkpoint hit",
				zap.String("invocation_id", inv.ID),
				zap.String("step", name))
			return stored, nil
		}
		// An undecodable checkpoint is treated as a miss; steps are
		// idempotent by contract so re-running is safe.
		inv.logger.Warn("discarding undecodable checkpoint",
			zap.String("invocation_id", inv.ID),
			zap.String("step", name))
	}

	result, err := fn(ctx)
	if err != nil {
		return zero, &StepError{Step: name, Err: err}
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return zero, &StepError{Step: name, Err: fmt.Errorf("encode checkpoint: %w", err)}
	}
	if err := inv.store.Put(ctx, inv.ID, name, encoded); err != nil {
		return zero, &StepError{Step: name, Err: err}
	}

	inv.logger.Debug("step completed",
		zap.String("invocation_id", inv.ID),
		zap.String("step", name))
	return result, nil
}

// External performs a non-deterministic call outside step checkpointing.
// The classifier gateway runs its own multi-step execution internally;
// caching its output here would create a second source of truth for "has
// this already run", so the call is repeated from scratch on every
// delivery of the event. fn must recover internally and always return a
// usable value.
func External[T any](ctx context.Context, inv *Invocation, name string, fn func(ctx context.Context) T) T {
	inv.logger.Debug("external call",
		zap.String("invocation_id", inv.ID),
		zap.String("call", name),
		zap.Int("attempt", inv.Attempt))
	return fn(ctx)
}
