package checkpoint

import (
	"context"
	"sync"
)

// memoryStore keeps checkpoints in a process-local map. Used by tests and
// when no Redis address is configured; checkpoints then survive retries of
// an invocation but not a process restart.
type memoryStore struct {
	mu          sync.RWMutex
	invocations map[string]map[string][]byte
}

// NewMemoryStore creates an in-memory checkpoint store.
func NewMemoryStore() Store {
	return &memoryStore{invocations: make(map[string]map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, invocationID, step string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	steps, ok := s.invocations[invocationID]
	if !ok {
		return nil, false, nil
	}
	value, ok := steps[step]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

func (s *memoryStore) Put(_ context.Context, invocationID, step string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	steps, ok := s.invocations[invocationID]
	if !ok {
		steps = make(map[string][]byte)
		s.invocations[invocationID] = steps
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	steps[step] = copied
	return nil
}

func (s *memoryStore) Clear(_ context.Context, invocationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invocations, invocationID)
	return nil
}
