// Package checkpoint stores completed step results keyed by
// (workflow invocation id, step name). A step whose checkpoint exists is
// never re-executed; its stored value is returned immediately on retry.
package checkpoint

import "context"

// Store persists step checkpoints. Implementations must support concurrent
// reads and writes for different invocation ids without interference.
type Store interface {
	// Get returns the stored value for (invocationID, step) and whether
	// a checkpoint exists.
	Get(ctx context.Context, invocationID, step string) ([]byte, bool, error)
	// Put stores the value for (invocationID, step), overwriting any
	// previous value for the same key.
	Put(ctx context.Context, invocationID, step string, value []byte) error
	// Clear drops every checkpoint recorded under invocationID.
	Clear(ctx context.Context, invocationID string) error
}
