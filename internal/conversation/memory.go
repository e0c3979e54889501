package conversation

import (
	"context"
	"sync"

	"github.com/stridelab/stridecoach/pkg/models"
)

// MemoryStore is the in-process checkpoint log used in tests and ephemeral
// deployments. Same contract as SQLiteStore, no durability.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string][][]models.ChatMessage
	locks   *lockTable
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		threads: make(map[string][][]models.ChatMessage),
		locks:   newLockTable(),
	}
}

func (s *MemoryStore) Load(_ context.Context, threadID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []models.ChatMessage
	for _, batch := range s.threads[threadID] {
		history = append(history, batch...)
	}
	return history, nil
}

func (s *MemoryStore) Append(_ context.Context, threadID string, msgs []models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	batch := make([]models.ChatMessage, len(msgs))
	copy(batch, msgs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], batch)
	return nil
}

func (s *MemoryStore) Acquire(threadID string) (func(), error) {
	return s.locks.Acquire(threadID)
}

// Turns reports how many checkpoints a thread holds, for tests.
func (s *MemoryStore) Turns(threadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads[threadID])
}
