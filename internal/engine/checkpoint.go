package engine

import (
	"context"
	"sync"

	"taxrag/internal/models"
)

// MemoryCheckpointer keeps checkpoints in process memory. It is the base
// store: state lives as long as the process. Durable stores (redis, sql)
// satisfy the same interface.
type MemoryCheckpointer struct {
	mu      sync.RWMutex
	threads map[string]*models.Checkpoint
}

func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{threads: make(map[string]*models.Checkpoint)}
}

func (m *MemoryCheckpointer) Load(_ context.Context, threadID string) (*models.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.threads[threadID]
	if !ok {
		return nil, nil
	}
	return cloneCheckpoint(cp), nil
}

func (m *MemoryCheckpointer) Save(_ context.Context, cp *models.Checkpoint) error {
	if cp == nil || cp.ThreadID == "" {
		return &models.ValidationError{Field: "checkpoint", Reason: "thread id required"}
	}
	m.mu.Lock()
	m.threads[cp.ThreadID] = cloneCheckpoint(cp)
	m.mu.Unlock()
	return nil
}

func cloneCheckpoint(cp *models.Checkpoint) *models.Checkpoint {
	clone := *cp
	clone.Messages = make([]*models.Message, 0, len(cp.Messages))
	for _, m := range cp.Messages {
		copied := *m
		clone.Messages = append(clone.Messages, &copied)
	}
	return &clone
}
