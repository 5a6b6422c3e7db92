package draft

import (
	"context"
	"sync"
)

// MemoryStore keeps drafts in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]string)}
}

func (s *MemoryStore) Read(ctx context.Context, id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[id], nil
}

func (s *MemoryStore) Write(ctx context.Context, id, text string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[id] = text
	return nil
}
