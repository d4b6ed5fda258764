package principal

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Principal
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Principal)}
}

func (r *memoryRepository) Create(_ context.Context, p Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[p.ID]; exists {
		return errors.New("principal exists")
	}
	r.storage[p.ID] = p
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.storage[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepository) FindByNationalID(_ context.Context, nationalID string) (Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.NationalID == nationalID {
			return p, nil
		}
	}
	return Principal{}, ErrNotFound
}
